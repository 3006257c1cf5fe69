package httpmw

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/cwrk-planet/chat-service/internal/logger"
)

type ctxKey string

const (
	HeaderRequestID        = "X-Request-ID"
	ctxKeyReqID     ctxKey = "req_id"
	ctxKeyUserID    ctxKey = "user_id"
)

// RequestID пробрасывает/генерирует X-Request-ID и кладёт логгер с ним в контекст.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)

		ctx := context.WithValue(r.Context(), ctxKeyReqID, reqID)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("req_id", reqID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestIDFromCtx(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyReqID).(string)
	return v, ok
}

// Logging пишет метод, путь, статус и длительность. Тела не логируются: в них пароли.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log := logger.FromContext(r.Context())
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		}
		if uid := UserIDFromCtx(r.Context()); uid != 0 {
			attrs = append(attrs, "user", uid)
		}
		if status >= http.StatusInternalServerError {
			log.Error("http request", attrs...)
			return
		}
		log.Info("http request", attrs...)
	})
}
