package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/iyunix/go-medrag/internal/auth"
)

// NewJWTMiddleware validates a bearer token on every request. With an empty secret
// the middleware lets requests through unauthenticated.
func NewJWTMiddleware(secret string, logger Logger) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		if len(key) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.Warn("missing bearer token", "path", r.URL.Path)
				unauthorized(w)
				return
			}

			subject, err := auth.ValidateToken(strings.TrimSpace(token), key)
			if err != nil {
				logger.Warn("invalid bearer token", "path", r.URL.Path, "error", err)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
