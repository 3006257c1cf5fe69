package httpmw

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type Authenticator interface {
	Verify(token string) (domain.UserID, error)
}

// Auth требует Authorization: Bearer <jwt> и кладёт user id в контекст.
func Auth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			uid, err := a.Verify(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"message": msg, "kind": "unauthenticated"},
	})
}

func WithUserID(ctx context.Context, id domain.UserID) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, id)
}

func UserIDFromCtx(ctx context.Context) domain.UserID {
	if id, ok := ctx.Value(ctxKeyUserID).(domain.UserID); ok {
		return id
	}
	return 0
}
