package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// errNoToken marks a request that carried no bearer credential at all.
var errNoToken = errors.New("auth: no bearer token")

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write the
// userID value in a request context — no other package can collide with it.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth is the authorization gate for protected routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header, validates
// it, and stores the userID in the request context. If the header is missing
// or the token invalid, it returns 401 Unauthorized and stops the chain. A
// missing token and a forged one get the same response.
//
// The gate is a pure boundary filter: it attaches context and nothing else.
// In particular it never touches the user store — stateless verification is
// the point of signing the token in the first place.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"valid authentication required"}`))
				return
			}

			// Store userID in context so handlers can read it
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context.
//
// Returns ("", false) if no valid token was presented on this request.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // request did not pass through RequireAuth
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// ContextWithUserID returns a context carrying the given userID.
// Exported for handler tests that call handlers without the middleware.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// extractUserID pulls the bearer token off the Authorization header and
// validates it.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", errNoToken
	}

	return tokens.Validate(strings.TrimSpace(token))
}
