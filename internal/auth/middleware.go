package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"bookshelf/internal/contextutil"
)

type ctxKey struct{}

// ClaimsFromContext returns the session claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*Claims)
	return claims, ok
}

// tokenFromRequest reads the Authorization header first, then the session cookie.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Middleware rejects requests without a valid session with 401 and stores the
// claims in the request context otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := contextutil.LoggerFromContext(ctx)

		claims, err := a.ParseToken(tokenFromRequest(r))
		if err != nil {
			logger.DebugContext(ctx, "unauthenticated request", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
			return
		}

		ctx = context.WithValue(ctx, ctxKey{}, claims)
		ctx = contextutil.WithLogger(ctx, logger.With("session_id", claims.SessionID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
