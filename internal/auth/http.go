// ABOUTME: HTTP middleware authenticating requests by session cookie or bearer token
// ABOUTME: Verifies the JWT and adds the caller's AuthContext to the request context

package auth

import (
	"net/http"
	"strings"
)

// SessionCookieName is the cookie the booking web app stores the session JWT in.
const SessionCookieName = "sesion"

// extractToken returns the session token from the cookie, falling back to the
// Authorization header. Returns an error message (empty if successful).
func extractToken(r *http.Request) (string, string) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, ""
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "missing session"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// SessionMiddleware creates an HTTP middleware that rejects requests without a
// valid session token and adds AuthContext to the request context otherwise.
func SessionMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractToken(r)
			if errMsg != "" {
				writeUnauthorized(w, errMsg)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				writeUnauthorized(w, "invalid session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), &AuthContext{UserID: userID})))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
