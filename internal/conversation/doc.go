// Package conversation is the layer between the gateway handlers and the
// message store.
//
// # Service
//
//	svc := conversation.New(store, broadcaster, idempotency, logger)
//
// Key operations:
//
//   - History(ctx, userID, conversationID): Messages oldest first
//   - Send(ctx, req): Persist a message, then publish it to live subscribers
//   - Authorize(ctx, userID, conversationID): Participant check used by /ws joins
//
// Only the customer and the gardener of a conversation may use it; everyone
// else gets ErrForbidden. A message is always recorded before it is published,
// so a live subscriber never sees a message that history would not return.
//
// # Idempotent Sends
//
// Clients attach an Idempotency-Key to each submission. The first request with
// a key creates the message; repeats within the cache TTL return a
// *DuplicateError naming the original message and publish nothing.
//
// # Event Broadcasting
//
// EventBroadcaster fans persisted messages out to every live subscriber of a
// conversation:
//
//	ch, subID := broadcaster.Subscribe(ctx, conversationID)
//	defer broadcaster.Unsubscribe(conversationID, subID)
//
// Publish never blocks; slow subscribers lose messages rather than stalling
// the sender.
package conversation
