// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
// IDs are assigned sequentially, matching SQLite AUTOINCREMENT semantics.
type MockStore struct {
	mu            sync.RWMutex
	conversations map[int64]*Conversation // keyed by conversation ID
	messages      map[int64][]*Message    // keyed by conversation ID
	nextConvID    int64
	nextMsgID     int64

	// SaveErr, when set, is returned by SaveMessage.
	SaveErr error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		conversations: make(map[int64]*Conversation),
		messages:      make(map[int64][]*Message),
	}
}

// CreateConversation stores a new conversation and assigns its ID.
func (m *MockStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextConvID++
	conv.ID = m.nextConvID
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	// Make a copy to avoid external modification
	c := *conv
	m.conversations[c.ID] = &c
	return nil
}

// GetConversation retrieves a conversation by ID.
func (m *MockStore) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// SaveMessage stores a message and assigns its ID and CreatedAt.
func (m *MockStore) SaveMessage(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	if _, ok := m.conversations[msg.ConversationID]; !ok {
		return ErrNotFound
	}

	m.nextMsgID++
	msg.ID = m.nextMsgID
	msg.CreatedAt = time.Now().UTC()

	cp := *msg
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], &cp)
	return nil
}

// ListMessages returns up to limit most recent messages, oldest first.
func (m *MockStore) ListMessages(ctx context.Context, conversationID int64, limit int) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.messages[conversationID]
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}

	result := make([]*Message, len(all))
	for i, msg := range all {
		cp := *msg
		result[i] = &cp
	}
	return result, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// Compile-time check that MockStore implements Store.
var _ Store = (*MockStore)(nil)
