// ABOUTME: Scriptable fake live transport for channel tests
// ABOUTME: fakeDialer hands out fakeConns whose frames and drops tests control

package channel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errDialRefused = errors.New("connection refused")

type fakeConn struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once

	mu     sync.Mutex
	writes []any
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.frames:
		return data, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// drop simulates the server going away.
func (c *fakeConn) drop() { _ = c.Close() }

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) written() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.writes...)
}

// push delivers a live event encoded as JSON.
func (c *fakeConn) push(t *testing.T, event any) {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	c.frames <- data
}

// fakeDialer answers dials from a script. Once the script is used up every
// dial fails.
type fakeDialer struct {
	mu      sync.Mutex
	script  []*fakeConn // nil entry means refuse
	dials   int
	urls    []string
	headers []http.Header
}

func (d *fakeDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	d.urls = append(d.urls, url)
	d.headers = append(d.headers, header)
	if len(d.script) == 0 {
		return nil, errDialRefused
	}
	next := d.script[0]
	d.script = d.script[1:]
	if next == nil {
		return nil, errDialRefused
	}
	return next, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) add(conns ...*fakeConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = append(d.script, conns...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mensaje(id, conversationID int64, body string) map[string]any {
	return map[string]any{
		"tipo": "mensaje",
		"mensaje": map[string]any{
			"id":             id,
			"conversacionId": conversationID,
			"remitenteId":    7,
			"contenido":      body,
			"creadoEn":       "2026-10-17T10:00:00Z",
		},
	}
}

func messageIDs(msgs []Message) []int64 {
	ids := make([]int64, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}

const eventually = 2 * time.Second
const tick = 5 * time.Millisecond
