// ABOUTME: HTTP API handlers for conversation history and message submission
// ABOUTME: Serializes messages in the compact wire form the channel client consumes

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2389/jardin-gateway/internal/auth"
	"github.com/2389/jardin-gateway/internal/conversation"
	"github.com/2389/jardin-gateway/internal/store"
)

// maxSendBodyBytes bounds a submission request body.
const maxSendBodyBytes = 64 << 10

// MessageResponse is a message in its compact wire form.
type MessageResponse struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversacionId"`
	SenderID       int64  `json:"remitenteId"`
	Body           string `json:"contenido"`
	CreatedAt      string `json:"creadoEn"`
}

// SendMessageRequest is the body of POST /api/mensajes.
type SendMessageRequest struct {
	ConversationID int64  `json:"conversacionId"`
	Body           string `json:"contenido"`
}

// DuplicateResponse answers a submission whose idempotency key was seen.
type DuplicateResponse struct {
	Status    string `json:"estado"`
	MessageID int64  `json:"id"`
}

func toMessageResponse(msg *store.Message) MessageResponse {
	return MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		CreatedAt:      msg.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleHistory handles GET /api/conversaciones/{id}/mensajes.
func (g *Gateway) handleHistory(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if authCtx == nil {
		g.sendJSONError(w, http.StatusUnauthorized, "missing session")
		return
	}

	conversationID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || conversationID <= 0 {
		g.sendJSONError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	msgs, err := g.conversation.History(r.Context(), authCtx.UserID, conversationID)
	if err != nil {
		g.sendServiceError(w, err)
		return
	}

	resp := make([]MessageResponse, len(msgs))
	for i, msg := range msgs {
		resp[i] = toMessageResponse(msg)
	}
	g.writeJSON(w, http.StatusOK, resp)
}

// handleSend handles POST /api/mensajes.
func (g *Gateway) handleSend(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	if authCtx == nil {
		g.sendJSONError(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSendBodyBytes)).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ConversationID <= 0 {
		g.sendJSONError(w, http.StatusBadRequest, "conversacionId is required")
		return
	}

	msg, err := g.conversation.Send(r.Context(), conversation.SendRequest{
		UserID:         authCtx.UserID,
		ConversationID: req.ConversationID,
		Body:           req.Body,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	var dup *conversation.DuplicateError
	if errors.As(err, &dup) {
		g.writeJSON(w, http.StatusOK, DuplicateResponse{Status: "duplicado", MessageID: dup.MessageID})
		return
	}
	if err != nil {
		g.sendServiceError(w, err)
		return
	}

	g.writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

// sendServiceError maps conversation errors to HTTP statuses.
func (g *Gateway) sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		g.sendJSONError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, conversation.ErrForbidden):
		g.sendJSONError(w, http.StatusForbidden, "not a participant")
	case errors.Is(err, conversation.ErrEmptyBody):
		g.sendJSONError(w, http.StatusBadRequest, "contenido is required")
	default:
		g.logger.Error("conversation request failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Debug("writing response failed", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.writeJSON(w, status, map[string]string{"error": message})
}
