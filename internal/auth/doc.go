// Package auth authenticates jardin-gateway requests.
//
// Users authenticate with an HS256 JWT whose "sub" claim is their numeric
// user ID. Browsers carry it in the "sesion" cookie set by the booking web
// app; API clients may send it as "Authorization: Bearer <token>" instead.
// Issuing the cookie is the web app's job; this package only verifies it.
//
// # HTTP Middleware
//
//	mux.Handle("/api/", auth.SessionMiddleware(verifier)(apiHandler))
//
// Handlers read the caller with FromContext:
//
//	authCtx := auth.FromContext(r.Context())
//	userID := authCtx.UserID
//
// # Tokens
//
// Operators mint tokens with the gateway CLI:
//
//	jardin-gateway token --user 7
package auth
