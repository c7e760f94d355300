// Package channel is the client side of a realtime conversation.
//
// A Channel keeps the ordered, de-duplicated message list of one
// conversation. Opening it fetches history once and subscribes to the live
// bus; the live connection reconnects on loss with a bounded retry budget.
//
//	ch := channel.Open(ctx, conversationID, channel.Options{
//		BaseURL:    "https://jardin.example.com",
//		HTTPClient: client, // carries the "sesion" cookie
//	})
//	defer ch.Close()
//
//	for range ch.Updates() {
//		render(ch.Messages())
//	}
//
// # Message List
//
// The list starts empty with Loading() true. History fills it once, then live
// events append to it. Message IDs are unique and entries are never reordered
// or rewritten. Live events that arrive while history is still loading are
// kept and appended after the history snapshot unless history already
// contains them.
//
// Both key styles of the message bus ("conversacionId" and
// "conversacion_id", and so on) are accepted on every inbound record and
// normalized to Message.
//
// # Live Connection
//
//	disconnected -> connecting -> connected -> disconnected (retry pending)
//	             -> connecting ... -> exhausted
//
// Close moves any state to closed. A successful connect resets the attempt
// counter; after MaxReconnectAttempts consecutive failures the channel stays
// exhausted until a new Open.
//
// # Sending
//
// Send posts the trimmed body and returns. The created message is not added
// locally; it arrives through the live subscription like everyone else's.
package channel
