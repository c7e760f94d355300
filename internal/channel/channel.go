// ABOUTME: Channel holds the message list and connection state of one conversation
// ABOUTME: Open starts the history fetch and the live connection; Close stops both

package channel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Defaults applied to zero Options fields.
const (
	DefaultBaseURL              = "http://localhost:8080"
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = 2 * time.Second
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("channel closed")

// State is the live connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateExhausted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateExhausted:
		return "exhausted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options configures a Channel. Zero fields take defaults.
type Options struct {
	// BaseURL is the message bus address, e.g. https://jardin.example.com.
	BaseURL string
	// HTTPClient is used for history and sends; its cookie jar also
	// authenticates the live connection.
	HTTPClient *http.Client
	// Dialer opens live connections. Defaults to a gorilla/websocket dialer.
	Dialer               Dialer
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	Logger               *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if o.Dialer == nil {
		o.Dialer = NewWebsocketDialer()
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Channel is an open conversation view.
type Channel struct {
	conversationID int64
	opts           Options
	baseURL        *url.URL
	logger         *slog.Logger

	mu       sync.Mutex
	messages []Message
	seen     map[int64]struct{}
	pending  []Message // live messages received while history is loading
	loading  bool
	state    State
	attempts int
	conn     Conn
	closed   bool
	updates  chan struct{}

	cancel    context.CancelFunc
	stopWatch func() bool
	done      chan struct{}
}

// Open starts a channel for conversationID. History is fetched once and the
// live connection is established in the background; neither failure is
// returned, both are logged. The channel stops when ctx ends or Close is
// called; either way the live connection is closed and Updates is closed.
func Open(ctx context.Context, conversationID int64, opts Options) *Channel {
	opts.applyDefaults()

	liveCtx, cancel := context.WithCancel(ctx)
	c := &Channel{
		conversationID: conversationID,
		opts:           opts,
		logger:         opts.Logger.With("component", "channel", "conversation_id", conversationID),
		seen:           make(map[int64]struct{}),
		loading:        true,
		state:          StateDisconnected,
		updates:        make(chan struct{}, 1),
		cancel:         cancel,
		done:           make(chan struct{}),
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		c.logger.Error("invalid base url", "base_url", opts.BaseURL, "error", err)
	} else {
		c.baseURL = base
	}

	// Ending ctx shuts the channel down like Close. The read loop blocks on
	// the socket, so it must be closed from outside.
	c.mu.Lock()
	c.stopWatch = context.AfterFunc(ctx, c.Close)
	c.mu.Unlock()

	go c.loadHistory(ctx)
	go c.run(liveCtx)

	return c
}

// ConversationID returns the conversation this channel follows.
func (c *Channel) ConversationID() int64 {
	return c.conversationID
}

// Messages returns a copy of the current message list.
func (c *Channel) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Loading reports whether the history fetch is still in flight.
func (c *Channel) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// State returns the live connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ReconnectAttempts returns the number of consecutive failed reconnects.
func (c *Channel) ReconnectAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Updates signals after the list, loading flag or state changes. Signals
// coalesce; read the accessors after each one. It is closed when the channel
// stops.
func (c *Channel) Updates() <-chan struct{} {
	return c.updates
}

// Close closes the live connection and cancels pending reconnects. It waits
// for the connection goroutine to exit. Safe to call more than once, and
// called automatically when the Open context ends.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.done
		return
	}
	c.closed = true
	c.state = StateClosed
	conn := c.conn
	c.conn = nil
	stop := c.stopWatch
	close(c.updates)
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.cancel()
	if conn != nil {
		_ = conn.Close()
	}
	<-c.done

	c.logger.Debug("channel closed")
}

// notifyLocked must be called with mu held.
func (c *Channel) notifyLocked() {
	if c.closed {
		return
	}
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// sessionHeader carries the jar's cookies for the base address onto the
// live handshake.
func (c *Channel) sessionHeader() http.Header {
	header := http.Header{}
	jar := c.opts.HTTPClient.Jar
	if jar == nil || c.baseURL == nil {
		return header
	}
	var parts []string
	for _, ck := range jar.Cookies(c.baseURL) {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	if len(parts) > 0 {
		header.Set("Cookie", strings.Join(parts, "; "))
	}
	return header
}

// appendLocked adds msg unless its ID is already present. mu must be held.
func (c *Channel) appendLocked(msg Message) bool {
	if _, dup := c.seen[msg.ID]; dup {
		return false
	}
	c.seen[msg.ID] = struct{}{}
	c.messages = append(c.messages, msg)
	return true
}

// applyLive records a message received on the live connection.
func (c *Channel) applyLive(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || msg.ConversationID != c.conversationID {
		return
	}

	if c.loading {
		for _, p := range c.pending {
			if p.ID == msg.ID {
				return
			}
		}
		c.pending = append(c.pending, msg)
		return
	}

	if c.appendLocked(msg) {
		c.notifyLocked()
	}
}

// applyHistory installs the history snapshot followed by any live messages
// that arrived during the fetch. A failed fetch passes nil.
func (c *Channel) applyHistory(history []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	for _, msg := range history {
		c.appendLocked(msg)
	}
	for _, msg := range c.pending {
		c.appendLocked(msg)
	}
	c.pending = nil
	c.loading = false
	c.notifyLocked()
}
