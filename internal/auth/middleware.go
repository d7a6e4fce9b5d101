package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/pinmap/internal/model"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the authenticated user.
type contextKey string

const userKey contextKey = "user"

// UserVerifier resolves a bearer token to the user it belongs to.
// service.AuthService is the production implementation; it validates the
// token and re-fetches the account, so a deleted user fails verification
// even with a signature-valid token.
type UserVerifier interface {
	VerifyToken(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth enforces authentication on protected routes.
//
// It expects `Authorization: Bearer <token>`. Missing header, malformed
// header, bad signature, expired token and deleted user all produce the
// same 401 body — the response never says which check failed.
func RequireAuth(verifier UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				unauthorized(w)
				return
			}

			user, err := verifier.VerifyToken(r.Context(), tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user set by RequireAuth.
// Returns (nil, false) if the request did not pass through the middleware.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// bearerToken extracts the token from the Authorization header.
// Returns "" if the header is absent or not a Bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
