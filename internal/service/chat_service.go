package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
)

type ChatService struct {
	store     repository.Store
	sendLocks *RoomLocks
	pub       Publisher
	now       func() time.Time
}

func NewChatService(store repository.Store, pub Publisher, now func() time.Time) *ChatService {
	return &ChatService{
		store:     store,
		sendLocks: NewRoomLocks(),
		pub:       pubOr(pub),
		now:       nowOr(now),
	}
}

// SendMessage сохраняет сообщение и рассылает его.
// Коммит и публикация идут под локом комнаты, поэтому порядок доставки = порядок коммита.
func (s *ChatService) SendMessage(ctx context.Context, userID domain.UserID, roomID domain.RoomID, content string) (*domain.Message, error) {
	content, err := domain.NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	user, err := ensureUser(ctx, s.store.Users(), userID)
	if err != nil {
		return nil, err
	}
	if _, err := ensureRoom(ctx, s.store.Rooms(), roomID); err != nil {
		return nil, err
	}

	unlock := s.sendLocks.Lock(roomID)
	defer unlock()

	msg, err := domain.NewMessage(roomID, userID, content, s.now())
	if err != nil {
		return nil, err
	}
	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		// лок строки комнаты: выход или удаление не закоммитится между проверкой и INSERT
		if _, err := tx.Rooms().Lock(ctx, roomID); err != nil {
			return notFound(err, domain.ErrRoomNotFound)
		}
		member, err := tx.Members().Exists(ctx, roomID, userID)
		if err != nil {
			return err
		}
		if !member {
			return domain.ErrNotInRoom
		}
		id, err := tx.Messages().Create(ctx, msg)
		if err != nil {
			return fmt.Errorf("save message: %w", err)
		}
		msg.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	msg.AuthorName = user.Username

	s.pub.Publish(domain.Event{Kind: domain.EventMessageCreated, RoomID: roomID, UserID: userID, Message: msg})
	return msg, nil
}

// GetMessages: история комнаты по возрастанию (created_at, id).
func (s *ChatService) GetMessages(ctx context.Context, userID domain.UserID, roomID domain.RoomID) ([]domain.Message, error) {
	if _, err := ensureRoom(ctx, s.store.Rooms(), roomID); err != nil {
		return nil, err
	}
	member, err := s.store.Members().Exists(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrNotInRoom
	}
	return s.store.Messages().ListByRoom(ctx, roomID)
}

// EditMessage: править может только автор; членство в комнате не перепроверяется.
func (s *ChatService) EditMessage(ctx context.Context, userID domain.UserID, messageID domain.MessageID, content string) (*domain.Message, error) {
	if _, err := domain.NormalizeContent(content); err != nil {
		return nil, err
	}

	msg, err := s.store.Messages().Get(ctx, messageID)
	if err != nil {
		return nil, notFound(err, domain.ErrMessageNotFound)
	}
	if msg.AuthorID != userID {
		return nil, domain.ErrNotAuthor
	}

	unlock := s.sendLocks.Lock(msg.RoomID)
	defer unlock()

	if err := msg.Edit(userID, content, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Messages().Update(ctx, msg); err != nil {
		return nil, notFound(err, domain.ErrMessageNotFound)
	}

	s.pub.Publish(domain.Event{Kind: domain.EventMessageEdited, RoomID: msg.RoomID, UserID: userID, Message: msg})
	return msg, nil
}
