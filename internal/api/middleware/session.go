package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/clients/telehealthapi"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
)

type sessionKey struct{}

// SessionFromContext returns the session id set by SessionMiddleware
func SessionFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionKey{}).(string)
	return sid, ok && sid != ""
}

// WithSession stores a session id on ctx
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionID derives a stable, non-reversible session id from a bearer token
func SessionID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

// bearerToken reads the Authorization header. EventSource cannot set headers,
// so stream requests may pass the token as access_token instead.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.HasPrefix(r.URL.Path, "/api/stream/") {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	return ""
}

// SessionMiddleware identifies the caller from their marketplace bearer token
// and forwards the token to outbound marketplace API calls. Requests without
// a token pass through unauthenticated; handlers that need a session reject them.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		sid := SessionID(token)
		ctx := WithSession(r.Context(), sid)
		ctx = telehealthapi.WithBearerToken(ctx, token)
		ctx = observability.WithSessionID(ctx, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
