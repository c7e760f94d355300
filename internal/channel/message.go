// ABOUTME: Message type exposed by a channel and normalization of inbound records
// ABOUTME: Accepts both compact and snake_case key styles from the message bus

package channel

import (
	"errors"
	"strings"
	"time"
)

// Message is one conversation message in its compact form.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversacionId"`
	SenderID       int64     `json:"remitenteId"`
	Body           string    `json:"contenido"`
	CreatedAt      time.Time `json:"creadoEn"`
}

var (
	errMissingID           = errors.New("message has no id")
	errMissingConversation = errors.New("message has no conversation id")
	errEmptyBody           = errors.New("message has no content")
)

// wireMessage is a message record as the bus may send it. The server emits
// compact keys but older endpoints use snake_case ones.
type wireMessage struct {
	ID        int64  `json:"id"`
	Contenido string `json:"contenido"`

	ConversacionID      *int64 `json:"conversacionId"`
	ConversacionIDSnake *int64 `json:"conversacion_id"`
	RemitenteID         *int64 `json:"remitenteId"`
	RemitenteIDSnake    *int64 `json:"remitente_id"`
	CreadoEn            string `json:"creadoEn"`
	CreadoEnSnake       string `json:"creado_en"`
}

// normalize converts a wire record to a Message. It is the only place key
// variants are resolved.
func (w wireMessage) normalize() (Message, error) {
	if w.ID <= 0 {
		return Message{}, errMissingID
	}

	convID := firstInt(w.ConversacionID, w.ConversacionIDSnake)
	if convID == nil {
		return Message{}, errMissingConversation
	}
	if strings.TrimSpace(w.Contenido) == "" {
		return Message{}, errEmptyBody
	}

	msg := Message{
		ID:             w.ID,
		ConversationID: *convID,
		Body:           w.Contenido,
		CreatedAt:      parseTimestamp(w.CreadoEn, w.CreadoEnSnake),
	}
	if sender := firstInt(w.RemitenteID, w.RemitenteIDSnake); sender != nil {
		msg.SenderID = *sender
	}
	return msg, nil
}

func firstInt(vals ...*int64) *int64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// parseTimestamp returns the first parseable RFC 3339 value, or the zero time.
// The timestamp is display-only so a bad value does not reject the message.
func parseTimestamp(vals ...string) time.Time {
	for _, v := range vals {
		if v == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
