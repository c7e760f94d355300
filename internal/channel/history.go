// ABOUTME: One-shot history fetch for an opened channel
// ABOUTME: Decodes the message array, normalizes each record and fails open

package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of an error response is read for logging.
const maxErrorBody = 4 << 10

func (c *Channel) historyURL() string {
	return fmt.Sprintf("%s/api/conversaciones/%d/mensajes", c.opts.BaseURL, c.conversationID)
}

// loadHistory fetches history once. On failure the list stays as live
// events leave it and loading is cleared.
func (c *Channel) loadHistory(ctx context.Context) {
	msgs, err := c.fetchHistory(ctx)
	if err != nil {
		c.logger.Error("history fetch failed", "error", err)
		c.applyHistory(nil)
		return
	}
	c.logger.Debug("history loaded", "count", len(msgs))
	c.applyHistory(msgs)
}

func (c *Channel) fetchHistory(ctx context.Context) ([]Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.historyURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var records []wireMessage
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}

	msgs := make([]Message, 0, len(records))
	for i := range records {
		msg, err := records[i].normalize()
		if err != nil {
			c.logger.Warn("skipping malformed history record", "index", i, "error", err)
			continue
		}
		if msg.ConversationID != c.conversationID {
			c.logger.Warn("skipping history record for another conversation",
				"message_id", msg.ID,
				"record_conversation_id", msg.ConversationID)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// StatusError is a non-2xx answer from the bus.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

// statusError reads the {"error":"..."} body if present.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Error string `json:"error"`
	}
	msg := string(body)
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}
