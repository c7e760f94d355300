// ABOUTME: Conversation service: participant checks, history and message submission
// ABOUTME: Messages are recorded first, then published to live subscribers

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/jardin-gateway/internal/store"
)

// HistoryLimit caps how many messages History returns.
const HistoryLimit = 500

// Service errors
var (
	ErrForbidden = errors.New("not a participant of this conversation")
	ErrEmptyBody = errors.New("message body is empty")
	ErrDuplicate = errors.New("duplicate submission")
)

// DuplicateError is returned by Send when an idempotency key was already used.
// It matches ErrDuplicate with errors.Is.
type DuplicateError struct {
	MessageID int64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate submission of message %d", e.MessageID)
}

// Is reports whether target is ErrDuplicate.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// Publisher receives every message after it is persisted.
type Publisher interface {
	Publish(msg *store.Message)
}

// IdempotencyCache remembers which message an idempotency key produced.
type IdempotencyCache interface {
	Lookup(key string) (int64, bool)
	Record(key string, messageID int64)
}

// Service is the central conversation layer.
type Service struct {
	store       store.Store
	publisher   Publisher
	idempotency IdempotencyCache
	logger      *slog.Logger

	// keyedMu serialises sends that carry an idempotency key, so two
	// concurrent retries cannot both miss the cache.
	keyedMu sync.Mutex
}

// New creates a Service. publisher and idempotency may be nil.
func New(s store.Store, publisher Publisher, idempotency IdempotencyCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       s,
		publisher:   publisher,
		idempotency: idempotency,
		logger:      logger.With("component", "conversation"),
	}
}

// SendRequest contains everything needed to submit a message.
type SendRequest struct {
	UserID         int64
	ConversationID int64
	Body           string
	IdempotencyKey string
}

// Authorize returns the conversation if userID is one of its participants.
func (s *Service) Authorize(ctx context.Context, userID, conversationID int64) (*store.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return conv, nil
}

// History returns the conversation's messages, oldest first.
func (s *Service) History(ctx context.Context, userID, conversationID int64) ([]*store.Message, error) {
	if _, err := s.Authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, conversationID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

// Send records a message and publishes it to live subscribers.
func (s *Service) Send(ctx context.Context, req SendRequest) (*store.Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if _, err := s.Authorize(ctx, req.UserID, req.ConversationID); err != nil {
		return nil, err
	}

	var cacheKey string
	if req.IdempotencyKey != "" && s.idempotency != nil {
		cacheKey = fmt.Sprintf("send:%d:%s", req.UserID, req.IdempotencyKey)

		s.keyedMu.Lock()
		defer s.keyedMu.Unlock()

		if id, ok := s.idempotency.Lookup(cacheKey); ok {
			s.logger.Info("duplicate submission dropped",
				"conversation_id", req.ConversationID,
				"user_id", req.UserID,
				"message_id", id)
			return nil, &DuplicateError{MessageID: id}
		}
	}

	msg := &store.Message{
		ConversationID: req.ConversationID,
		SenderID:       req.UserID,
		Body:           body,
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("saving message: %w", err)
	}

	if cacheKey != "" {
		s.idempotency.Record(cacheKey, msg.ID)
	}

	s.logger.Debug("message recorded",
		"conversation_id", msg.ConversationID,
		"message_id", msg.ID,
		"sender_id", msg.SenderID)

	if s.publisher != nil {
		s.publisher.Publish(msg)
	}
	return msg, nil
}
