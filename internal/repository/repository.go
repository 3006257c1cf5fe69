// Package repository описывает хранилище чата; реализации: postgres и badgerstore.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

var (
	ErrNotFound      = errors.New("repository: not found")
	ErrAlreadyExists = errors.New("repository: already exists")
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (domain.UserID, error)
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Delete(ctx context.Context, id domain.UserID) error
}

type RoomRepository interface {
	Create(ctx context.Context, r *domain.Room) (domain.RoomID, error)
	Get(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	// Lock читает комнату с блокировкой строки до конца транзакции.
	Lock(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	List(ctx context.Context) ([]domain.RoomSummary, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]domain.RoomSummary, error)
	Delete(ctx context.Context, id domain.RoomID) error
}

type MemberRepository interface {
	Add(ctx context.Context, m *domain.Membership) error
	Exists(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)
	Count(ctx context.Context, roomID domain.RoomID) (int, error)
	ListByRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Member, error)
	Remove(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error
	Touch(ctx context.Context, roomID domain.RoomID, userID domain.UserID, at time.Time) error
	DeleteByRoom(ctx context.Context, roomID domain.RoomID) error
	CountByUser(ctx context.Context, userID domain.UserID) (int, error)
}

type InviteRepository interface {
	Create(ctx context.Context, c *domain.InviteCode) (int64, error)
	GetByRoom(ctx context.Context, roomID domain.RoomID) (*domain.InviteCode, error)
	GetByCode(ctx context.Context, code string) (*domain.InviteCode, error)
	DeleteByRoom(ctx context.Context, roomID domain.RoomID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) (domain.MessageID, error)
	Get(ctx context.Context, id domain.MessageID) (*domain.Message, error)
	// ListByRoom: по возрастанию (created_at, id).
	ListByRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Message, error)
	Update(ctx context.Context, m *domain.Message) error
	DeleteByRoom(ctx context.Context, roomID domain.RoomID) error
}

// Repos: набор репозиториев, привязанных к пулу или к транзакции.
type Repos interface {
	Users() UserRepository
	Rooms() RoomRepository
	Members() MemberRepository
	Invites() InviteRepository
	Messages() MessageRepository
}

type Store interface {
	Repos
	// InTx выполняет fn атомарно; ошибка fn откатывает транзакцию.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error
	Close()
}
