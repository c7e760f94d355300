// ABOUTME: Live transport abstraction and its gorilla/websocket implementation
// ABOUTME: Also builds the session HTTP client and derives the live endpoint URL

package channel

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// SessionCookieName is the cookie the bus authenticates requests with.
const SessionCookieName = "sesion"

// Dialer opens live connections.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// Conn is a live bus connection. ReadMessage and WriteJSON are only called
// from the channel's connection goroutine; Close may be called concurrently.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	Close() error
}

// WebsocketDialer dials the bus with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
}

// NewWebsocketDialer returns a dialer with a 10 second handshake timeout.
func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{Dialer: &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}}
}

// Dial implements Dialer.
func (d *WebsocketDialer) Dial(ctx context.Context, urlStr string, header http.Header) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, urlStr, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: %w (status %d)", urlStr, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dialing %s: %w", urlStr, err)
	}
	return &websocketConn{conn: conn}, nil
}

type websocketConn struct {
	conn *websocket.Conn
}

func (c *websocketConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *websocketConn) WriteJSON(v any) error {
	return c.conn.WriteJSON(v)
}

// Close sends a normal closure frame before closing the socket.
func (c *websocketConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

// NewSessionClient returns an HTTP client whose cookie jar carries token as
// the session cookie for baseURL.
func NewSessionClient(baseURL, token string) (*http.Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	if token != "" {
		jar.SetCookies(u, []*http.Cookie{{Name: SessionCookieName, Value: token, Path: "/"}})
	}
	return &http.Client{Jar: jar, Timeout: 30 * time.Second}, nil
}

// liveURL derives the bus endpoint from the base address: http becomes ws,
// https becomes wss, and the path is /ws.
func liveURL(base *url.URL) (string, error) {
	u := *base
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", base.String())
	}
	u.Path = "/ws"
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String(), nil
}
