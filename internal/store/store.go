// ABOUTME: Store interface and data types for jardin-gateway persistence
// ABOUTME: Defines Conversation and Message structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Conversation is a thread between a customer and the gardener handling
// their appointment. Only its two participants may read or write it.
type Conversation struct {
	ID          int64
	ClienteID   int64
	JardineroID int64
	CreatedAt   time.Time
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID int64) bool {
	return userID == c.ClienteID || userID == c.JardineroID
}

// Message is a single message within a conversation.
// ID and CreatedAt are assigned by the store on save.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	Body           string
	CreatedAt      time.Time
}

// Store defines the interface for conversation and message persistence
type Store interface {
	// Conversations
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id int64) (*Conversation, error)

	// Messages
	SaveMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID int64, limit int) ([]*Message, error)

	// Close releases any resources held by the store
	Close() error
}
