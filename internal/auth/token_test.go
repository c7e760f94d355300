// ABOUTME: Unit tests for JWT session token verification and generation
// ABOUTME: Tests valid tokens, invalid tokens, expired tokens, and bad subjects

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("jardin-test-secret-key-32-bytes!")

func mustVerifier(t *testing.T, secret []byte) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier(secret)
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	return v
}

func TestNewJWTVerifier_WeakSecret(t *testing.T) {
	_, err := NewJWTVerifier([]byte("short"))
	if !errors.Is(err, ErrWeakSecret) {
		t.Errorf("NewJWTVerifier() error = %v, want ErrWeakSecret", err)
	}
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	verifier := mustVerifier(t, testSecret)

	token, err := verifier.Generate(42, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	gotID, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if gotID != 42 {
		t.Errorf("Verify() = %d, want 42", gotID)
	}
}

func TestJWTVerifier_InvalidToken(t *testing.T) {
	verifier := mustVerifier(t, testSecret)
	other := mustVerifier(t, []byte("a-completely-different-secret-32"))
	wrongSecret, _ := other.Generate(42, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "garbage token", token: "not-a-jwt-token"},
		{name: "malformed JWT", token: "header.payload.signature"},
		{name: "wrong secret", token: wrongSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	verifier := mustVerifier(t, testSecret)

	token, err := verifier.Generate(42, -time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTVerifier_BadSubject(t *testing.T) {
	verifier := mustVerifier(t, testSecret)

	sign := func(claims jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		return tok
	}
	exp := time.Now().Add(time.Hour).Unix()

	if _, err := verifier.Verify(sign(jwt.MapClaims{"exp": exp})); !errors.Is(err, ErrMissingClaim) {
		t.Errorf("missing sub: error = %v, want ErrMissingClaim", err)
	}
	if _, err := verifier.Verify(sign(jwt.MapClaims{"sub": "gardener-7", "exp": exp})); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("non-numeric sub: error = %v, want ErrInvalidToken", err)
	}
	if _, err := verifier.Verify(sign(jwt.MapClaims{"sub": "0", "exp": exp})); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("zero sub: error = %v, want ErrInvalidToken", err)
	}
}
