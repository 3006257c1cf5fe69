package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/logger"
	"github.com/cwrk-planet/chat-service/internal/repository"
)

type RoomService struct {
	store repository.Store
	locks *RoomLocks
	pub   Publisher
	now   func() time.Time
}

func NewRoomService(store repository.Store, locks *RoomLocks, pub Publisher, now func() time.Time) *RoomService {
	if locks == nil {
		locks = NewRoomLocks()
	}
	return &RoomService{store: store, locks: locks, pub: pubOr(pub), now: nowOr(now)}
}

// CreateRoom создаёт комнату и сразу добавляет создателя участником, атомарно.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID domain.UserID, title string, maxMembers int, isPrivate bool) (*domain.Room, error) {
	now := s.now()
	room, err := domain.NewRoom(creatorID, title, maxMembers, isPrivate, now)
	if err != nil {
		return nil, err
	}
	if _, err := ensureUser(ctx, s.store.Users(), creatorID); err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		id, err := tx.Rooms().Create(ctx, room)
		if err != nil {
			return err
		}
		room.ID = id
		return tx.Members().Add(ctx, domain.NewMembership(id, creatorID, now))
	})
	if err != nil {
		logger.FromContext(ctx).Error("room.create failed", "creator", creatorID, "err", err)
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

// JoinRoom: прямой вход с проверкой max_members.
func (s *RoomService) JoinRoom(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (*domain.Membership, error) {
	if _, err := ensureUser(ctx, s.store.Users(), userID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	m, err := join(ctx, s.store, roomID, userID, true, s.now())
	if err != nil {
		return nil, err
	}
	s.pub.Publish(domain.Event{Kind: domain.EventMemberJoined, RoomID: roomID, UserID: userID})
	return m, nil
}

func (s *RoomService) ListRooms(ctx context.Context, callerID domain.UserID) ([]domain.RoomSummary, error) {
	if _, err := ensureUser(ctx, s.store.Users(), callerID); err != nil {
		return nil, err
	}
	return s.store.Rooms().List(ctx)
}

func (s *RoomService) ListUserRooms(ctx context.Context, userID domain.UserID) ([]domain.RoomSummary, error) {
	if _, err := ensureUser(ctx, s.store.Users(), userID); err != nil {
		return nil, err
	}
	return s.store.Rooms().ListByUser(ctx, userID)
}

// ListMembers доступен только участникам комнаты.
func (s *RoomService) ListMembers(ctx context.Context, roomID domain.RoomID, callerID domain.UserID) ([]domain.Member, error) {
	if _, err := ensureRoom(ctx, s.store.Rooms(), roomID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, roomID, callerID); err != nil {
		return nil, err
	}
	return s.store.Members().ListByRoom(ctx, roomID)
}

// LeaveOrDelete: создатель удаляет комнату, только если он в ней один;
// остальные просто выходят (для не-участника это no-op).
func (s *RoomService) LeaveOrDelete(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (domain.LeaveResult, error) {
	if _, err := ensureUser(ctx, s.store.Users(), userID); err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	var (
		result  domain.LeaveResult
		removed bool
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		room, err := tx.Rooms().Lock(ctx, roomID)
		if err != nil {
			return notFound(err, domain.ErrRoomNotFound)
		}

		if !room.IsCreator(userID) {
			result = domain.LeftRoom
			err := tx.Members().Remove(ctx, roomID, userID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			removed = err == nil
			return err
		}

		count, err := tx.Members().Count(ctx, roomID)
		if err != nil {
			return err
		}
		if count != 1 {
			return domain.ErrCreatorCannotLeave
		}

		result = domain.RoomDeleted
		return deleteRoomCascade(ctx, tx, roomID)
	})
	if err != nil {
		if domain.KindOf(err) == 0 {
			logger.FromContext(ctx).Error("room.leave failed", "room", roomID, "user", userID, "err", err)
		}
		return 0, err
	}

	switch {
	case result == domain.RoomDeleted:
		s.pub.Publish(domain.Event{Kind: domain.EventRoomDeleted, RoomID: roomID, UserID: userID})
	case removed:
		s.pub.Publish(domain.Event{Kind: domain.EventMemberLeft, RoomID: roomID, UserID: userID})
	}
	return result, nil
}

// deleteRoomCascade удаляет инвайт, сообщения, участников и комнату в одной транзакции.
func deleteRoomCascade(ctx context.Context, tx repository.Repos, roomID domain.RoomID) error {
	if err := tx.Invites().DeleteByRoom(ctx, roomID); err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}
	if err := tx.Messages().DeleteByRoom(ctx, roomID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err := tx.Members().DeleteByRoom(ctx, roomID); err != nil {
		return fmt.Errorf("delete members: %w", err)
	}
	if err := tx.Rooms().Delete(ctx, roomID); err != nil {
		return fmt.Errorf("delete room: %w", notFound(err, domain.ErrRoomNotFound))
	}
	return nil
}

func (s *RoomService) GetRoom(ctx context.Context, roomID domain.RoomID) (*domain.Room, error) {
	return ensureRoom(ctx, s.store.Rooms(), roomID)
}

func (s *RoomService) IsMember(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	return s.store.Members().Exists(ctx, roomID, userID)
}

// TouchHeartbeat обновляет last_seen участника; для не-участника ErrNotInRoom.
func (s *RoomService) TouchHeartbeat(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	return notFound(s.store.Members().Touch(ctx, roomID, userID, s.now()), domain.ErrNotInRoom)
}

func (s *RoomService) requireMember(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	ok, err := s.store.Members().Exists(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotInRoom
	}
	return nil
}
