package http

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/transport/dto"
	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"
)

// Presence: кто из участников сейчас подключён по WS.
type Presence interface {
	Online(roomID domain.RoomID) map[domain.UserID]bool
}

type Handler struct {
	auth     *service.AuthService
	rooms    *service.RoomService
	invites  *service.InviteService
	chat     *service.ChatService
	presence Presence
}

func NewHandler(auth *service.AuthService, rooms *service.RoomService, invites *service.InviteService, chat *service.ChatService, presence Presence) *Handler {
	return &Handler{auth: auth, rooms: rooms, invites: invites, chat: chat, presence: presence}
}

func authResponse(res *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{UserID: int64(res.User.ID), Username: res.User.Username, Token: res.Token}
}

// POST /api/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(r.Context(), w, "Register", err)
		return
	}
	res, err := h.auth.Register(r.Context(), service.RegisterInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(r.Context(), w, "Register", err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse(res))
}

// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(r.Context(), w, "Login", err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(r.Context(), w, "Login", err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse(res))
}

// DELETE /api/users/me
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteUser(r.Context(), httpmw.UserIDFromCtx(r.Context())); err != nil {
		writeError(r.Context(), w, "DeleteMe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListRooms(r.Context(), httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(r.Context(), w, "ListRooms", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Rooms(rooms))
}

// GET /api/rooms/mine
func (h *Handler) ListMyRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListUserRooms(r.Context(), httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(r.Context(), w, "ListMyRooms", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Rooms(rooms))
}

// POST /api/rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRoomRequest
	if err := decode(w, r, &req); err != nil {
		writeError(r.Context(), w, "CreateRoom", err)
		return
	}
	room, err := h.rooms.CreateRoom(r.Context(), httpmw.UserIDFromCtx(r.Context()), req.Title, req.MaxMembers, req.IsPrivate)
	if err != nil {
		writeError(r.Context(), w, "CreateRoom", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.Room(domain.RoomSummary{Room: *room, MemberCount: 1}))
}

// POST /api/rooms/{id}/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, "JoinRoom", err)
		return
	}
	m, err := h.rooms.JoinRoom(r.Context(), httpmw.UserIDFromCtx(r.Context()), domain.RoomID(id))
	if err != nil {
		writeError(r.Context(), w, "JoinRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Membership(m))
}

// GET /api/rooms/{id}/members
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, "Members", err)
		return
	}
	roomID := domain.RoomID(id)
	members, err := h.rooms.ListMembers(r.Context(), roomID, httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(r.Context(), w, "Members", err)
		return
	}
	out := dto.Members(members)
	if h.presence != nil {
		online := h.presence.Online(roomID)
		out.Items = lo.Map(out.Items, func(it dto.MemberItem, _ int) dto.MemberItem {
			it.Online = online[domain.UserID(it.UserID)]
			return it
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// DELETE /api/rooms/{id}: выход, а для создателя, оставшегося последним, удаление комнаты
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, "LeaveRoom", err)
		return
	}
	if _, err := h.rooms.LeaveOrDelete(r.Context(), httpmw.UserIDFromCtx(r.Context()), domain.RoomID(id)); err != nil {
		writeError(r.Context(), w, "LeaveRoom", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/rooms/{id}/invite-code
func (h *Handler) CreateInviteCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, "CreateInviteCode", err)
		return
	}
	code, err := h.invites.CreateInviteCode(r.Context(), httpmw.UserIDFromCtx(r.Context()), domain.RoomID(id))
	if err != nil {
		writeError(r.Context(), w, "CreateInviteCode", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.InviteCode(code))
}

// POST /api/invite-codes/redeem
func (h *Handler) RedeemInviteCode(w http.ResponseWriter, r *http.Request) {
	var req dto.RedeemRequest
	if err := decode(w, r, &req); err != nil {
		writeError(r.Context(), w, "RedeemInviteCode", err)
		return
	}
	m, err := h.invites.RedeemInviteCode(r.Context(), httpmw.UserIDFromCtx(r.Context()), req.Code)
	if err != nil {
		writeError(r.Context(), w, "RedeemInviteCode", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Membership(m))
}

// GET /api/rooms/{id}/messages
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, "Messages", err)
		return
	}
	msgs, err := h.chat.GetMessages(r.Context(), httpmw.UserIDFromCtx(r.Context()), domain.RoomID(id))
	if err != nil {
		writeError(r.Context(), w, "Messages", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Messages(msgs))
}

// POST /api/rooms/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, "SendMessage", err)
		return
	}
	var req dto.SendMessageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(r.Context(), w, "SendMessage", err)
		return
	}
	msg, err := h.chat.SendMessage(r.Context(), httpmw.UserIDFromCtx(r.Context()), domain.RoomID(id), req.Content)
	if err != nil {
		writeError(r.Context(), w, "SendMessage", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.Message(*msg))
}

// PATCH /api/rooms/{id}/messages/{messageID}
// id сообщения глобален; {id} комнаты нужен для heartbeat.
func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	msgID, err := pathID(r, "messageID")
	if err != nil {
		writeError(r.Context(), w, "EditMessage", err)
		return
	}
	var req dto.SendMessageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(r.Context(), w, "EditMessage", err)
		return
	}
	msg, err := h.chat.EditMessage(r.Context(), httpmw.UserIDFromCtx(r.Context()), domain.MessageID(msgID), req.Content)
	if err != nil {
		writeError(r.Context(), w, "EditMessage", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.Message(*msg))
}
