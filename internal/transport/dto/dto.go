// Package dto: JSON-представления доменных типов для HTTP и WS.
package dto

import (
	"time"

	"github.com/samber/lo"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type CreateRoomRequest struct {
	Title      string `json:"title"`
	MaxMembers int    `json:"max_members"`
	IsPrivate  bool   `json:"is_private"`
}

type RoomItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	MaxMembers  int       `json:"max_members"`
	IsPrivate   bool      `json:"is_private"`
	CreatorID   int64     `json:"creator_id"`
	MemberCount int       `json:"member_count"`
	IsFull      bool      `json:"is_full"`
	CreatedAt   time.Time `json:"created_at"`
}

type RoomsListResponse struct {
	Items []RoomItem `json:"items"`
}

type MembershipItem struct {
	RoomID   int64     `json:"room_id"`
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type MemberItem struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
	LastSeen time.Time `json:"last_seen"`
	Online   bool      `json:"online,omitempty"`
}

type MembersResponse struct {
	Items []MemberItem `json:"items"`
}

type RedeemRequest struct {
	Code string `json:"code"`
}

type InviteCodeResponse struct {
	RoomID    int64     `json:"room_id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type MessageItem struct {
	ID         int64     `json:"id"`
	RoomID     int64     `json:"room_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Edited     bool      `json:"edited"`
}

type MessagesResponse struct {
	Items []MessageItem `json:"items"`
}

func Room(r domain.RoomSummary) RoomItem {
	return RoomItem{
		ID:          int64(r.ID),
		Title:       r.Title,
		MaxMembers:  r.MaxMembers,
		IsPrivate:   r.IsPrivate,
		CreatorID:   int64(r.CreatorID),
		MemberCount: r.MemberCount,
		IsFull:      r.IsFull(),
		CreatedAt:   r.CreatedAt,
	}
}

func Rooms(rs []domain.RoomSummary) RoomsListResponse {
	return RoomsListResponse{Items: lo.Map(rs, func(r domain.RoomSummary, _ int) RoomItem { return Room(r) })}
}

func Membership(m *domain.Membership) MembershipItem {
	return MembershipItem{RoomID: int64(m.RoomID), UserID: int64(m.UserID), JoinedAt: m.JoinedAt}
}

func Member(m domain.Member) MemberItem {
	return MemberItem{UserID: int64(m.UserID), Username: m.Username, JoinedAt: m.JoinedAt, LastSeen: m.LastSeen}
}

func Members(ms []domain.Member) MembersResponse {
	return MembersResponse{Items: lo.Map(ms, func(m domain.Member, _ int) MemberItem { return Member(m) })}
}

func InviteCode(c *domain.InviteCode) InviteCodeResponse {
	return InviteCodeResponse{RoomID: int64(c.RoomID), Code: c.Code, ExpiresAt: c.ExpiresAt}
}

func Message(m domain.Message) MessageItem {
	return MessageItem{
		ID:         int64(m.ID),
		RoomID:     int64(m.RoomID),
		AuthorID:   int64(m.AuthorID),
		AuthorName: m.AuthorName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		Edited:     m.UpdatedAt.After(m.CreatedAt),
	}
}

func Messages(ms []domain.Message) MessagesResponse {
	return MessagesResponse{Items: lo.Map(ms, func(m domain.Message, _ int) MessageItem { return Message(m) })}
}
