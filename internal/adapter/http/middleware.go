package adapthttp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"weightlog/internal/domain"
	"weightlog/internal/logging"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// requireAuth resolves the bearer token and stores the caller's user id in
// the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated))
			return
		}
		userID, err := s.auth.Authenticate(token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		ctx = logging.WithContext(ctx, logging.FromContext(ctx).With("user_id", userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// userIDFromContext returns the id stored by requireAuth.
func userIDFromContext(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDContextKey).(int64)
	return id
}
