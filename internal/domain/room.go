package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type RoomID int64

const (
	MinRoomMembers = 1
	MaxRoomMembers = 20
	MaxTitleLength = 100
)

type Room struct {
	ID         RoomID
	Title      string
	MaxMembers int
	IsPrivate  bool
	CreatorID  UserID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewRoom(creator UserID, title string, maxMembers int, isPrivate bool, now time.Time) (*Room, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Validation("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, Validation("title is too long")
	}
	if maxMembers < MinRoomMembers || maxMembers > MaxRoomMembers {
		return nil, Validation("max_members must be between 1 and 20")
	}

	return &Room{
		Title:      title,
		MaxMembers: maxMembers,
		IsPrivate:  isPrivate,
		CreatorID:  creator,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (r *Room) IsCreator(id UserID) bool { return r.CreatorID == id }

// RoomSummary: комната с текущим числом участников.
type RoomSummary struct {
	Room
	MemberCount int
}

func (s RoomSummary) IsFull() bool { return s.MemberCount >= s.MaxMembers }

type Membership struct {
	RoomID   RoomID
	UserID   UserID
	JoinedAt time.Time
	LastSeen time.Time
}

func NewMembership(room RoomID, user UserID, now time.Time) *Membership {
	return &Membership{RoomID: room, UserID: user, JoinedAt: now, LastSeen: now}
}

// Member: участник комнаты с именем пользователя.
type Member struct {
	UserID   UserID
	Username string
	JoinedAt time.Time
	LastSeen time.Time
}

// LeaveResult говорит, чем закончился LeaveOrDelete.
type LeaveResult int

const (
	LeftRoom LeaveResult = iota + 1
	RoomDeleted
)

func (r LeaveResult) String() string {
	switch r {
	case LeftRoom:
		return "left"
	case RoomDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
