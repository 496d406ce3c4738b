package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. With a plain string key like
// "userID", ANY package that knows the string can read or shadow the value.
// A package-private type means only this package can produce the key, so
// only this package can touch userID values in the context.
type contextKey string

const userIDKey contextKey = "userID"

// RankChecker answers "is this user an admin?". The auth package defines the
// interface it consumes (Go's consumer-side interface convention) so it
// doesn't have to import the service or repository packages; AuthService
// satisfies it.
type RankChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAuth enforces a valid session on protected routes.
//
// It reads the JWT from the "session" cookie, validates it, and stores the
// userID in the request context. Missing or invalid token → 401 and the
// chain stops.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the user identity if a valid session is present but
// never blocks the request.
//
// Used on public reads like GET /api/snippets/{id}, where anonymous visitors
// are welcome but logged-in users get extra response fields (isLiked,
// isFollowing) and view dedup by account instead of by IP.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil && userID != "" {
				ctx := context.WithValue(r.Context(), userIDKey, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin enforces the admin rank. It must be mounted AFTER RequireAuth
// (it reads the userID the auth middleware put into the context) and adds
// exactly one store lookup per admin request — admin traffic is rare enough
// that caching the rank in the token isn't worth going stale over.
func RequireAdmin(checker RankChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, `{"error":"unauthorized","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}

			isAdmin, err := checker.IsAdmin(r.Context(), userID)
			if err != nil || !isAdmin {
				http.Error(w, `{"error":"forbidden","message":"admin access required"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads the session cookie and validates it.
// Shared by RequireAuth and OptionalAuth.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie — not an error, just an anonymous request
		return "", err
	}

	return tokens.Validate(cookie.Value)
}

// WithUserID returns a context carrying the given userID. Test helper — it
// lets handler tests simulate an authenticated request without minting a
// real token.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
