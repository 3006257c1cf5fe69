package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/logger"
	"github.com/cwrk-planet/chat-service/internal/transport/apierr"
	"github.com/cwrk-planet/chat-service/internal/transport/dto"
)

type Authenticator interface {
	Verify(token string) (domain.UserID, error)
}

type RoomSvc interface {
	ListMembers(ctx context.Context, roomID domain.RoomID, callerID domain.UserID) ([]domain.Member, error)
	IsMember(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)
	TouchHeartbeat(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error
}

type ChatSvc interface {
	SendMessage(ctx context.Context, userID domain.UserID, roomID domain.RoomID, content string) (*domain.Message, error)
	EditMessage(ctx context.Context, userID domain.UserID, messageID domain.MessageID, content string) (*domain.Message, error)
}

type Config struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	SendBuffer     int
	MaxFrameBytes  int64
	AllowedOrigins []string
}

func (c *Config) defaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = 15 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = 64 << 10
	}
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	auth     Authenticator
	rooms    RoomSvc
	chat     ChatSvc
	cfg      Config
}

func NewServer(hub *Hub, auth Authenticator, rooms RoomSvc, chat ChatSvc, cfg Config) *Server {
	cfg.defaults()
	s := &Server{hub: hub, auth: auth, rooms: rooms, chat: chat, cfg: cfg}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || lo.Contains(s.cfg.AllowedOrigins, origin)
}

// WS endpoint: GET /ws/rooms/{id}?access_token=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	token := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if token == "" {
		token = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	}
	uid, err := s.auth.Verify(token)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	rid, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || rid <= 0 {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	roomID := domain.RoomID(rid)

	// заодно проверка членства
	members, err := s.rooms.ListMembers(r.Context(), roomID, uid)
	if err != nil {
		http.Error(w, apierr.Message(err), apierr.Status(err))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newClient(conn, roomID, uid, s.cfg.SendBuffer)
	s.hub.Add(c)
	log = log.With("room", roomID, "user", uid)

	// Выход между ListMembers и Add не закрыл бы этот сокет: member_left
	// ушёл до подписки. После Add любой следующий выход уже его закроет.
	if ok, err := s.rooms.IsMember(r.Context(), roomID, uid); err != nil || !ok {
		s.hub.Remove(c)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "not a member"),
			time.Now().Add(s.cfg.WriteTimeout))
		_ = conn.Close()
		log.Info("ws rejected after subscribe", "member", ok, "err", err)
		return
	}
	log.Info("ws connected")

	s.sendState(c, members)

	go c.writeLoop(s.cfg.PingInterval, s.cfg.WriteTimeout)
	s.readLoop(r.Context(), c, log)

	s.hub.Remove(c)
	c.stop()
	log.Info("ws disconnected")
}

func (s *Server) sendState(c *Client, members []domain.Member) {
	online := s.hub.Online(c.roomID)
	items := lo.Map(members, func(m domain.Member, _ int) dto.MemberItem {
		it := dto.Member(m)
		it.Online = online[m.UserID]
		return it
	})
	s.reply(c, Frame{Type: TypeState, Payload: StatePayload{RoomID: int64(c.roomID), Members: items}})
}

func (s *Server) readLoop(ctx context.Context, c *Client, log *slog.Logger) {
	pongWait := 2 * s.cfg.PingInterval

	c.conn.SetReadLimit(s.cfg.MaxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if err := s.rooms.TouchHeartbeat(ctx, c.roomID, c.userID); errors.Is(err, domain.ErrNotInRoom) {
			c.close()
		}
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("ws read failed", "err", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var in inFrame
		if err := json.Unmarshal(data, &in); err != nil {
			s.replyErr(c, domain.Validation("malformed frame"))
			continue
		}
		s.handle(ctx, c, in, log)
	}
}

func (s *Server) handle(ctx context.Context, c *Client, in inFrame, log *slog.Logger) {
	switch in.Type {
	case TypeChat:
		var p ChatPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			s.replyErr(c, domain.Validation("malformed chat payload"))
			return
		}
		// message_created придёт через hub всем, включая отправителя
		msg, err := s.chat.SendMessage(ctx, c.userID, c.roomID, p.Content)
		if err != nil {
			s.logErr(log, "ws chat send failed", err)
			s.replyErr(c, err)
			return
		}
		s.reply(c, Frame{Type: TypeChatAck, Payload: ChatAckPayload{MessageID: int64(msg.ID)}})

	case TypeChatEdit:
		var p ChatEditPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.MessageID <= 0 {
			s.replyErr(c, domain.Validation("malformed chat_edit payload"))
			return
		}
		if _, err := s.chat.EditMessage(ctx, c.userID, domain.MessageID(p.MessageID), p.Content); err != nil {
			s.logErr(log, "ws chat edit failed", err)
			s.replyErr(c, err)
		}

	default:
		s.replyErr(c, domain.Validation("unknown frame type "+strconv.Quote(in.Type)))
	}
}

func (s *Server) reply(c *Client, f Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	if !c.enqueue(b) {
		c.stop()
	}
}

func (s *Server) replyErr(c *Client, err error) {
	s.reply(c, Frame{Type: TypeError, Payload: ErrorPayload{Message: apierr.Message(err), Kind: apierr.Kind(err)}})
}

func (s *Server) logErr(log *slog.Logger, msg string, err error) {
	if domain.KindOf(err) != 0 {
		log.Debug(msg, "err", err)
		return
	}
	log.Error(msg, "err", err)
}
