// ABOUTME: Message submission for an opened channel
// ABOUTME: Posts the trimmed body with an idempotency key; the echo arrives live

package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// IdempotencyKeyHeader lets the bus drop a repeated submission.
const IdempotencyKeyHeader = "Idempotency-Key"

type sendRequest struct {
	ConversationID int64  `json:"conversacionId"`
	Body           string `json:"contenido"`
}

// Send submits body to the conversation. A body that is empty after trimming
// is ignored without a request. The created message is not appended here; it
// arrives over the live connection. Failures are logged and returned, never
// retried.
func (c *Channel) Send(ctx context.Context, body string) error {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := c.post(ctx, trimmed); err != nil {
		c.logger.Error("send failed", "error", err)
		return err
	}
	return nil
}

func (c *Channel) post(ctx context.Context, body string) error {
	payload, err := json.Marshal(sendRequest{ConversationID: c.conversationID, Body: body})
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/api/mensajes", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyKeyHeader, uuid.NewString())

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sending message: %w", statusError(resp))
	}
	return nil
}
