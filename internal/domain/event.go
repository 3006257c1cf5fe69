package domain

type EventKind string

const (
	EventMessageCreated EventKind = "message_created"
	EventMessageEdited  EventKind = "message_edited"
	EventMemberJoined   EventKind = "member_joined"
	EventMemberLeft     EventKind = "member_left"
	EventRoomDeleted    EventKind = "room_deleted"
)

// Event: то, что рассылается подключённым участникам комнаты.
type Event struct {
	Kind    EventKind
	RoomID  RoomID
	UserID  UserID
	Message *Message
}
