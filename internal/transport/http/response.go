package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/logger"
	"github.com/cwrk-planet/chat-service/internal/transport/apierr"
)

const maxBodyBytes = 1 << 20

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

// writeError: унифицированная ошибка {"error":{"message","kind"}}.
func writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := apierr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error("handler."+op, slog.Any("err", err))
	}
	writeJSON(w, status, envelope{
		"error": envelope{
			"message": apierr.Message(err),
			"kind":    apierr.Kind(err),
		},
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Validation("invalid json")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("invalid " + name)
	}
	return id, nil
}
