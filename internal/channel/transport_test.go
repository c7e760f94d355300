// ABOUTME: Tests for live URL derivation and the session HTTP client
// ABOUTME: Covers scheme mapping and cookie propagation onto the handshake

package channel

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "http://localhost:8080", want: "ws://localhost:8080/ws"},
		{base: "https://jardin.example.com", want: "wss://jardin.example.com/ws"},
		{base: "https://jardin.example.com/app/?x=1", want: "wss://jardin.example.com/ws"},
		{base: "ws://10.0.0.2:9000", want: "ws://10.0.0.2:9000/ws"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			u, err := url.Parse(tt.base)
			require.NoError(t, err)
			got, err := liveURL(u)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiveURL_Rejects(t *testing.T) {
	for _, base := range []string{"ftp://host", "http://"} {
		u, err := url.Parse(base)
		require.NoError(t, err)
		_, err = liveURL(u)
		assert.Error(t, err, base)
	}
}

func TestSessionHeaderFromJar(t *testing.T) {
	client, err := NewSessionClient("http://127.0.0.1:8080", "tok-123")
	require.NoError(t, err)

	dialer := &fakeDialer{}
	ch := Open(t.Context(), 5, Options{
		BaseURL:              "http://127.0.0.1:8080",
		HTTPClient:           client,
		Dialer:               dialer,
		MaxReconnectAttempts: 1,
		ReconnectDelay:       tick,
		Logger:               quietLogger(),
	})
	defer ch.Close()

	assert.Eventually(t, func() bool { return dialer.dialCount() >= 1 }, eventually, tick)

	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	assert.Equal(t, "sesion=tok-123", dialer.headers[0].Get("Cookie"))
	assert.Equal(t, "ws://127.0.0.1:8080/ws", dialer.urls[0])
}
