package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"
)

type RouterConfig struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

func NewRouter(h *Handler, auth httpmw.Authenticator, heartbeat httpmw.HeartbeatToucher, wsHandler http.HandlerFunc, cfg RouterConfig) http.Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httpmw.RequestID)
	r.Use(httpmw.Logging)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{httpmw.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// WS без Timeout: соединение живёт дольше запроса
	if wsHandler != nil {
		r.Get("/ws/rooms/{id}", wsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.Timeout))

		api.Post("/register", h.Register)
		api.Post("/login", h.Login)

		// всё остальное с access-токеном
		api.Group(func(pr chi.Router) {
			pr.Use(httpmw.Auth(auth))

			pr.Delete("/users/me", h.DeleteMe)
			pr.Post("/invite-codes/redeem", h.RedeemInviteCode)

			pr.Route("/rooms", func(rm chi.Router) {
				rm.Get("/", h.ListRooms)
				rm.Post("/", h.CreateRoom)
				rm.Get("/mine", h.ListMyRooms)

				rm.Route("/{id}", func(rr chi.Router) {
					rr.Use(httpmw.Heartbeat(heartbeat))

					rr.Delete("/", h.LeaveRoom)
					rr.Post("/join", h.JoinRoom)
					rr.Get("/members", h.Members)
					rr.Post("/invite-code", h.CreateInviteCode)
					rr.Get("/messages", h.Messages)
					rr.Post("/messages", h.SendMessage)
					rr.Patch("/messages/{messageID}", h.EditMessage)
				})
			})
		})
	})

	return r
}
