package httpmw

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// HeartbeatToucher обновляет last_seen участника.
type HeartbeatToucher interface {
	TouchHeartbeat(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error
}

// Heartbeat обновляет last_seen для {id, user}, если {id} есть в пути.
// Вешается внутри Route("/{id}"), иначе chi ещё не знает параметр.
func Heartbeat(t HeartbeatToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if uid := UserIDFromCtx(r.Context()); uid != 0 {
				if id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64); err == nil {
					// best-effort: ошибки не прерывают запрос
					_ = t.TouchHeartbeat(r.Context(), domain.RoomID(id), uid)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
