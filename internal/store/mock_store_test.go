package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_MessageLifecycle(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()
	conv := createConversation(t, m, 1, 2)

	msg := &Message{ConversationID: conv.ID, SenderID: 1, Body: "hola"}
	require.NoError(t, m.SaveMessage(ctx, msg))
	assert.Equal(t, int64(1), msg.ID)

	msgs, err := m.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hola", msgs[0].Body)

	// Returned values are copies.
	msgs[0].Body = "changed"
	again, _ := m.ListMessages(ctx, conv.ID, 0)
	assert.Equal(t, "hola", again[0].Body)
}

func TestMockStore_SaveMessage_UnknownConversation(t *testing.T) {
	m := NewMockStore()
	err := m.SaveMessage(context.Background(), &Message{ConversationID: 7})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockStore_SaveErr(t *testing.T) {
	m := NewMockStore()
	conv := createConversation(t, m, 1, 2)
	m.SaveErr = errors.New("disk full")

	err := m.SaveMessage(context.Background(), &Message{ConversationID: conv.ID, SenderID: 1, Body: "x"})
	assert.EqualError(t, err, "disk full")
}
