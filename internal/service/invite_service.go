package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/logger"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/security"
)

const maxCodeAttempts = 5

var errCodeCollision = errors.New("invite code collision")

type InviteService struct {
	store   repository.Store
	locks   *RoomLocks
	pub     Publisher
	ttl     time.Duration
	newCode func() (string, error)
	now     func() time.Time
}

func NewInviteService(store repository.Store, locks *RoomLocks, pub Publisher, ttl time.Duration, now func() time.Time) *InviteService {
	if locks == nil {
		locks = NewRoomLocks()
	}
	if ttl <= 0 {
		ttl = domain.DefaultInviteTTL
	}
	return &InviteService{
		store:   store,
		locks:   locks,
		pub:     pubOr(pub),
		ttl:     ttl,
		newCode: security.InviteCode,
		now:     nowOr(now),
	}
}

// CreateInviteCode выпускает код; только создатель и только если живого кода нет.
// Истёкший код комнаты заменяется новым.
func (s *InviteService) CreateInviteCode(ctx context.Context, callerID domain.UserID, roomID domain.RoomID) (*domain.InviteCode, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	var (
		invite *domain.InviteCode
		err    error
	)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		invite, err = s.tryCreate(ctx, callerID, roomID)
		if !errors.Is(err, errCodeCollision) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, errCodeCollision) {
			return nil, fmt.Errorf("create invite: %w", err)
		}
		return nil, err
	}
	return invite, nil
}

func (s *InviteService) tryCreate(ctx context.Context, callerID domain.UserID, roomID domain.RoomID) (*domain.InviteCode, error) {
	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	now := s.now()

	var invite *domain.InviteCode
	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		room, err := tx.Rooms().Lock(ctx, roomID)
		if err != nil {
			return notFound(err, domain.ErrRoomNotFound)
		}
		if !room.IsCreator(callerID) {
			return domain.ErrNotRoomCreator
		}

		current, err := tx.Invites().GetByRoom(ctx, roomID)
		switch {
		case err == nil && !current.Expired(now):
			return domain.ErrInviteExists
		case err == nil:
			if err := tx.Invites().DeleteByRoom(ctx, roomID); err != nil {
				return err
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		if _, err := tx.Invites().GetByCode(ctx, code); err == nil {
			return errCodeCollision
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		invite, err = domain.NewInviteCode(roomID, code, s.ttl, now)
		if err != nil {
			return err
		}
		id, err := tx.Invites().Create(ctx, invite)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return errCodeCollision
			}
			return err
		}
		invite.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// RedeemInviteCode добавляет пользователя в комнату кода.
// Лимит max_members здесь не проверяется.
func (s *InviteService) RedeemInviteCode(ctx context.Context, userID domain.UserID, code string) (*domain.Membership, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.Validation("invite code is required")
	}
	if _, err := ensureUser(ctx, s.store.Users(), userID); err != nil {
		return nil, err
	}

	invite, err := s.store.Invites().GetByCode(ctx, code)
	if err != nil {
		return nil, notFound(err, domain.ErrInviteNotFound)
	}
	if invite.Expired(s.now()) {
		return nil, domain.ErrInviteNotFound
	}

	unlock := s.locks.Lock(invite.RoomID)
	defer unlock()

	m, err := join(ctx, s.store, invite.RoomID, userID, false, s.now())
	if err != nil {
		return nil, err
	}
	s.pub.Publish(domain.Event{Kind: domain.EventMemberJoined, RoomID: invite.RoomID, UserID: userID})
	return m, nil
}

// PurgeExpired удаляет все коды с expires_at <= now.
func (s *InviteService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.Invites().DeleteExpired(ctx, now)
	if err != nil {
		logger.FromContext(ctx).Error("invite.purge failed", "err", err)
		return 0, err
	}
	return n, nil
}
