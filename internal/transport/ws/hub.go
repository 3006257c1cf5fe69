package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/logger"
	"github.com/cwrk-planet/chat-service/internal/transport/dto"
)

// Hub держит подключения по комнатам и реализует service.Publisher.
// Publish не блокируется: медленный клиент отключается.
type Hub struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[*Client]struct{}
	log   *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[domain.RoomID]map[*Client]struct{}),
		log:   logger.L().With("component", "ws.hub"),
	}
}

func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[c.roomID]
	if !ok {
		rs = make(map[*Client]struct{})
		h.rooms[c.roomID] = rs
	}
	rs[c] = struct{}{}
}

func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[c.roomID]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
}

// Online: пользователи комнаты с открытым соединением.
func (h *Hub) Online(roomID domain.RoomID) map[domain.UserID]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[domain.UserID]bool, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		out[c.userID] = true
	}
	return out
}

// Connections: число соединений комнаты.
func (h *Hub) Connections(roomID domain.RoomID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) Broadcast(roomID domain.RoomID, f Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		h.log.Error("ws marshal frame failed", "type", f.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[roomID] {
		if !c.enqueue(b) {
			h.log.Warn("ws slow consumer dropped", "room", roomID, "user", c.userID)
			c.stop()
		}
	}
}

// closeWhere дописывает очереди подходящих соединений и закрывает их.
func (h *Hub) closeWhere(roomID domain.RoomID, match func(*Client) bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[roomID] {
		if match(c) {
			c.close()
		}
	}
}

func (h *Hub) Publish(ev domain.Event) {
	room := int64(ev.RoomID)

	switch ev.Kind {
	case domain.EventMessageCreated, domain.EventMessageEdited:
		if ev.Message == nil {
			return
		}
		typ := TypeMessageCreated
		if ev.Kind == domain.EventMessageEdited {
			typ = TypeMessageEdited
		}
		h.Broadcast(ev.RoomID, Frame{Type: typ, Payload: dto.Message(*ev.Message)})

	case domain.EventMemberJoined:
		h.Broadcast(ev.RoomID, Frame{Type: TypePeerJoined, Payload: PeerEventPayload{RoomID: room, UserID: int64(ev.UserID)}})

	case domain.EventMemberLeft:
		h.Broadcast(ev.RoomID, Frame{Type: TypePeerLeft, Payload: PeerEventPayload{RoomID: room, UserID: int64(ev.UserID)}})
		// бывший участник больше не получает доставку
		h.closeWhere(ev.RoomID, func(c *Client) bool { return c.userID == ev.UserID })

	case domain.EventRoomDeleted:
		h.Broadcast(ev.RoomID, Frame{Type: TypeRoomDeleted, Payload: RoomDeletedPayload{RoomID: room}})
		h.closeWhere(ev.RoomID, func(*Client) bool { return true })

	default:
		h.log.Debug("ws unknown event", "kind", ev.Kind)
	}
}
