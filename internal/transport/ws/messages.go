package ws

import (
	"encoding/json"

	"github.com/cwrk-planet/chat-service/internal/transport/dto"
)

// Типы кадров
const (
	TypeState          = "state"           // снапшот участников комнаты
	TypePeerJoined     = "peer_joined"     // новый участник комнаты
	TypePeerLeft       = "peer_left"       // участник вышел
	TypeMessageCreated = "message_created" // новое сообщение
	TypeMessageEdited  = "message_edited"  // сообщение отредактировано
	TypeRoomDeleted    = "room_deleted"    // комната удалена, соединение будет закрыто
	TypeError          = "error"           // ошибка только отправителю

	TypeChat     = "chat"      // client -> server: отправить
	TypeChatEdit = "chat_edit" // client -> server: редактировать
	TypeChatAck  = "chat_ack"  // подтверждение отправителю
)

// Frame: исходящий кадр.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// inFrame: входящий кадр; payload разбирается по типу.
type inFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type StatePayload struct {
	RoomID  int64            `json:"room_id"`
	Members []dto.MemberItem `json:"members"`
}

type PeerEventPayload struct {
	RoomID int64 `json:"room_id"`
	UserID int64 `json:"user_id"`
}

type RoomDeletedPayload struct {
	RoomID int64 `json:"room_id"`
}

type ChatPayload struct {
	Content string `json:"content"`
}

type ChatEditPayload struct {
	MessageID int64  `json:"message_id"`
	Content   string `json:"content"`
}

// для клиента: снять pending
type ChatAckPayload struct {
	MessageID int64 `json:"message_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}
