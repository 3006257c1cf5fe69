// Package service: бизнес-логика чата: комнаты, инвайты, сообщения, пользователи.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/roomlock"
)

//go:generate go run go.uber.org/mock/mockgen -source=service.go -destination=../mocks/mock_publisher.go -package=mocks

// Publisher рассылает события подключённым участникам комнаты.
type Publisher interface {
	Publish(ev domain.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.Event) {}

// RoomLocks сериализует изменения состава комнаты внутри процесса.
type RoomLocks = roomlock.Locker[domain.RoomID]

func NewRoomLocks() *RoomLocks { return roomlock.New[domain.RoomID]() }

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

func nowOr(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

func pubOr(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// notFound подменяет repository.ErrNotFound доменной ошибкой.
func notFound(err error, domainErr error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domainErr
	}
	return err
}

func ensureUser(ctx context.Context, users repository.UserRepository, id domain.UserID) (*domain.User, error) {
	u, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func ensureRoom(ctx context.Context, rooms repository.RoomRepository, id domain.RoomID) (*domain.Room, error) {
	r, err := rooms.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	return r, nil
}

// join добавляет участника в комнату в транзакции с блокировкой строки комнаты.
// enforceCapacity=false используется при входе по инвайт-коду.
func join(
	ctx context.Context,
	store repository.Store,
	roomID domain.RoomID,
	userID domain.UserID,
	enforceCapacity bool,
	now time.Time,
) (*domain.Membership, error) {
	m := domain.NewMembership(roomID, userID, now)

	err := store.InTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		room, err := tx.Rooms().Lock(ctx, roomID)
		if err != nil {
			return notFound(err, domain.ErrRoomNotFound)
		}

		member, err := tx.Members().Exists(ctx, roomID, userID)
		if err != nil {
			return err
		}
		if member {
			return domain.ErrAlreadyJoined
		}

		if enforceCapacity {
			count, err := tx.Members().Count(ctx, roomID)
			if err != nil {
				return err
			}
			if count >= room.MaxMembers {
				return domain.ErrRoomFull
			}
		}

		if err := tx.Members().Add(ctx, m); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return domain.ErrAlreadyJoined
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
