// ABOUTME: Tests for jardin-gateway CLI helpers
// ABOUTME: Covers flag parsing, token minting, conversation creation and logging setup

package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/jardin-gateway/internal/auth"
	"github.com/2389/jardin-gateway/internal/config"
	"github.com/2389/jardin-gateway/internal/store"
)

const testSecret = "jardin-test-secret-key-32-bytes!"

func TestParseFlags(t *testing.T) {
	flags, err := parseFlags([]string{"--cliente", "7", "--jardinero=9"}, "cliente", "jardinero")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cliente": "7", "jardinero": "9"}, flags)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown flag", args: []string{"--name", "x"}, wantErr: "unknown flag"},
		{name: "missing value", args: []string{"--user"}, wantErr: "requires a value"},
		{name: "positional", args: []string{"7"}, wantErr: "unexpected argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, "user")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireID(t *testing.T) {
	id, err := requireID(map[string]string{"user": "42"}, "user")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = requireID(map[string]string{}, "user")
	assert.ErrorContains(t, err, "is required")

	for _, bad := range []string{"0", "-3", "siete"} {
		_, err = requireID(map[string]string{"user": bad}, "user")
		assert.ErrorContains(t, err, "positive integer", bad)
	}
}

func TestMintToken(t *testing.T) {
	token, err := mintToken(testSecret, 7, time.Hour)
	require.NoError(t, err)

	verifier, err := auth.NewJWTVerifier([]byte(testSecret))
	require.NoError(t, err)
	userID, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)

	_, err = mintToken("short", 7, time.Hour)
	assert.Error(t, err)
}

func TestCreateConversation(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "gateway.db"))
	require.NoError(t, err)
	defer s.Close()

	conv, err := createConversation(t.Context(), s, 7, 9)
	require.NoError(t, err)
	assert.NotZero(t, conv.ID)

	got, err := s.GetConversation(t.Context(), conv.ID)
	require.NoError(t, err)
	assert.True(t, got.HasParticipant(7))
	assert.True(t, got.HasParticipant(9))

	_, err = createConversation(t.Context(), s, 7, 7)
	assert.ErrorContains(t, err, "must differ")
}

func TestHealthURL(t *testing.T) {
	tests := []struct {
		cfg  config.Config
		want string
	}{
		{cfg: config.Config{Server: config.ServerConfig{HTTPAddr: ":8080"}}, want: "http://localhost:8080/health"},
		{cfg: config.Config{Server: config.ServerConfig{HTTPAddr: "0.0.0.0:9000"}}, want: "http://localhost:9000/health"},
		{cfg: config.Config{Server: config.ServerConfig{HTTPAddr: "10.1.2.3:8080"}}, want: "http://10.1.2.3:8080/health"},
		{cfg: config.Config{Tailscale: config.TailscaleConfig{Enabled: true, Hostname: "jardin"}}, want: "http://jardin/health"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, healthURL(&tt.cfg))
	}
}

func TestSetupLogger_ColorHandler(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.With("component", "gateway").WithGroup("req").Warn("slow request", "ms", 1200)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WRN slow request")
	assert.Contains(t, out, "component=gateway")
	assert.Contains(t, out, "req.ms=1200")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.Debug("hola", "conversation_id", 5)

	assert.Contains(t, buf.String(), `"msg":"hola"`)
	assert.Contains(t, buf.String(), `"conversation_id":5`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
