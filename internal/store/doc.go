// Package store provides persistent storage for the gateway using SQLite.
//
// # Data Models
//
//   - Conversation: a customer/gardener pair; only participants may use it
//   - Message: one message, with server-assigned integer ID and timestamp
//
// Message IDs come from SQLite AUTOINCREMENT, so they are unique and strictly
// increasing across the whole database. ListMessages returns them in ascending
// order, which is also arrival order.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Database file locations:
//
//   - Production: /var/lib/jardin/gateway.db
//   - Development: ~/.local/share/jardin/gateway.db
//   - Testing: a file under t.TempDir()
//
// # Testing
//
// Use NewMockStore() for unit tests that don't need SQL behaviour.
package store
