// ABOUTME: Live connection loop: dial, join, read events, reconnect with a budget
// ABOUTME: Dispatches inbound events by their "tipo" discriminator

package channel

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Live event kinds.
const (
	tipoJoin    = "join"
	tipoMensaje = "mensaje"
	tipoError   = "error"
)

type joinDirective struct {
	Tipo           string `json:"tipo"`
	ConversationID int64  `json:"conversacionId"`
}

type inboundEvent struct {
	Tipo    string          `json:"tipo"`
	Mensaje json.RawMessage `json:"mensaje"`
	Error   string          `json:"error"`
}

// run owns the live connection until ctx ends or the retry budget runs out.
func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	if c.baseURL == nil {
		c.exhaust()
		return
	}
	target, err := liveURL(c.baseURL)
	if err != nil {
		c.logger.Error("cannot derive live url", "error", err)
		c.exhaust()
		return
	}

	// Fixed delay, bounded retries; Reset on every successful connect.
	retry := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(c.opts.ReconnectDelay),
		uint64(c.opts.MaxReconnectAttempts))

	for {
		if !c.setState(StateConnecting) {
			return
		}

		conn, err := c.opts.Dialer.Dial(ctx, target, c.sessionHeader())
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("live connection failed", "url", target, "error", err)
			}
		} else if c.attach(conn) {
			retry.Reset()
			c.serve(conn)
			c.detach(conn)
		} else {
			_ = conn.Close()
			return
		}

		if ctx.Err() != nil {
			return
		}

		delay := retry.NextBackOff()
		attempt, ok := c.scheduleRetry(delay != backoff.Stop)
		if !ok {
			return
		}
		c.logger.Info("reconnecting", "attempt", attempt, "max_attempts", c.opts.MaxReconnectAttempts, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// setState changes state unless the channel is closed.
func (c *Channel) setState(s State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.state = s
	c.notifyLocked()
	return true
}

func (c *Channel) exhaust() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state = StateExhausted
	c.notifyLocked()
}

// attach installs a fresh connection and resets the retry budget.
func (c *Channel) attach(conn Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conn = conn
	c.attempts = 0
	c.state = StateConnected
	c.notifyLocked()
	return true
}

func (c *Channel) detach(conn Conn) {
	c.mu.Lock()
	owned := c.conn == conn
	if owned {
		c.conn = nil
	}
	c.mu.Unlock()
	if owned {
		_ = conn.Close()
	}
}

// scheduleRetry counts one more failed attempt, or moves to exhausted when
// the backoff has stopped.
func (c *Channel) scheduleRetry(allowed bool) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, false
	}
	if !allowed {
		c.state = StateExhausted
		c.notifyLocked()
		c.logger.Error("live connection lost, giving up",
			"attempts", c.attempts,
			"max_attempts", c.opts.MaxReconnectAttempts)
		return c.attempts, false
	}
	c.attempts++
	c.state = StateDisconnected
	c.notifyLocked()
	return c.attempts, true
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// serve joins the conversation and reads events until the connection drops.
func (c *Channel) serve(conn Conn) {
	c.logger.Info("live connection established")

	if err := conn.WriteJSON(joinDirective{Tipo: tipoJoin, ConversationID: c.conversationID}); err != nil {
		if !c.isClosed() {
			c.logger.Warn("sending join failed", "error", err)
		}
		return
	}

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				c.logger.Warn("live connection lost", "error", err)
			}
			return
		}
		c.handleEvent(data)
	}
}

func (c *Channel) handleEvent(data []byte) {
	var ev inboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		c.logger.Warn("dropping malformed live event", "error", err, "raw", string(data))
		return
	}

	switch ev.Tipo {
	case tipoMensaje:
		var w wireMessage
		if err := json.Unmarshal(ev.Mensaje, &w); err != nil {
			c.logger.Warn("dropping malformed live message", "error", err, "raw", string(data))
			return
		}
		msg, err := w.normalize()
		if err != nil {
			c.logger.Warn("dropping malformed live message", "error", err, "raw", string(data))
			return
		}
		c.applyLive(msg)
	case tipoError:
		c.logger.Warn("live error event", "error", ev.Error, "raw", string(data))
	default:
		c.logger.Debug("ignoring live event", "tipo", ev.Tipo)
	}
}
