// ABOUTME: Shared helpers for gateway tests
// ABOUTME: Builds gateways over mock or SQLite stores and mints session tokens

package gateway

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/2389/jardin-gateway/internal/config"
	"github.com/2389/jardin-gateway/internal/store"
)

const (
	testSecret = "jardin-test-secret-key-32-bytes!"

	cliente   int64 = 7
	jardinero int64 = 9
	outsider  int64 = 99
)

// testLogger creates a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig creates a minimal config with a free HTTP port.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	httpAddr := ln.Addr().String()
	ln.Close()

	return &config.Config{
		Server:   config.ServerConfig{HTTPAddr: httpAddr},
		Database: config.DatabaseConfig{Path: ":memory:"},
		Auth:     config.AuthConfig{JWTSecret: testSecret},
		Live: config.LiveConfig{
			PingInterval: 50 * time.Millisecond,
			PongWait:     5 * time.Second,
		},
	}
}

// newTestGateway builds a gateway over a MockStore holding one conversation
// between cliente and jardinero.
func newTestGateway(t *testing.T) (*Gateway, *store.MockStore, int64) {
	t.Helper()

	ms := store.NewMockStore()
	conv := &store.Conversation{ClienteID: cliente, JardineroID: jardinero}
	require.NoError(t, ms.CreateConversation(context.Background(), conv))

	gw, err := newGateway(testConfig(t), ms, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Shutdown(context.Background()) })

	return gw, ms, conv.ID
}

// sessionToken mints a session token for userID.
func sessionToken(t *testing.T, gw *Gateway, userID int64) string {
	t.Helper()
	token, err := gw.verifier.Generate(userID, time.Hour)
	require.NoError(t, err)
	return token
}

// withSession attaches the session cookie for userID.
func withSession(t *testing.T, gw *Gateway, req *http.Request, userID int64) *http.Request {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: "sesion", Value: sessionToken(t, gw, userID)})
	return req
}

// createConversation stores a conversation and returns its ID.
func createConversation(t *testing.T, s store.Store, clienteID, jardineroID int64) int64 {
	t.Helper()
	conv := &store.Conversation{ClienteID: clienteID, JardineroID: jardineroID}
	require.NoError(t, s.CreateConversation(context.Background(), conv))
	return conv.ID
}
