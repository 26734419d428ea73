package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

type contextKey string

const contextKeyPrincipal contextKey = "principal"

// Session cookie name
const sessionCookieName = "session"

// Principal is the authenticated owner identity resolved from the session.
// Every storage read is scoped by OwnerID; handlers never accept an owner
// identifier from the client.
type Principal struct {
	OwnerID string
}

// GetPrincipal retrieves the authenticated principal from context
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(contextKeyPrincipal).(*Principal); ok {
		return p
	}
	return nil
}

// authMiddleware validates the session token and adds the principal to
// context. Sessions are provisioned by the identity provider webhook; this
// layer only resolves them. Requests without a valid session fail closed
// before any corpus access.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string

		// Try to get token from httpOnly cookie first
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			token = cookie.Value
		} else {
			// Fall back to Authorization header for API clients
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token = strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}
		}

		// Hash the token for lookup
		hash := sha256.Sum256([]byte(token))
		tokenHash := hex.EncodeToString(hash[:])

		var ownerID string
		err := s.db.QueryRow(`
			SELECT owner_id FROM sessions
			WHERE token_hash = ? AND expires_at > datetime('now')
		`, tokenHash).Scan(&ownerID)

		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Update last activity
		_, _ = s.db.Exec(`
			UPDATE sessions SET last_activity = datetime('now') WHERE token_hash = ?
		`, tokenHash)

		ctx := context.WithValue(r.Context(), contextKeyPrincipal, &Principal{OwnerID: ownerID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HashToken returns the hex-encoded SHA-256 of a session token, the form
// tokens are stored in.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
