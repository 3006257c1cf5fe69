package badgerstore

import (
	"context"
	"errors"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

type MessageRepo struct {
	r   runner
	seq *badger.Sequence
}

func (m *MessageRepo) Create(_ context.Context, msg *domain.Message) (domain.MessageID, error) {
	var id int64
	err := m.r.update(func(txn *badger.Txn) error {
		var err error
		if id, err = nextID(m.seq); err != nil {
			return err
		}
		rec := *msg
		rec.ID = domain.MessageID(id)
		rec.AuthorName = ""

		key := msgKey(int64(msg.RoomID), msg.CreatedAt.UnixNano(), id)
		if err := setJSON(txn, key, rec); err != nil {
			return err
		}
		return txn.Set(msgIndexKey(id), key)
	})
	return domain.MessageID(id), err
}

func (m *MessageRepo) Get(_ context.Context, id domain.MessageID) (*domain.Message, error) {
	var msg domain.Message
	err := m.r.view(func(txn *badger.Txn) error {
		key, err := m.keyOf(txn, id)
		if err != nil {
			return err
		}
		if err := getJSON(txn, key, &msg); err != nil {
			return err
		}
		msg.AuthorName, err = usernameOf(txn, msg.AuthorID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByRoom: ключи упорядочены по (created_at, id), сортировка не нужна.
func (m *MessageRepo) ListByRoom(_ context.Context, roomID domain.RoomID) ([]domain.Message, error) {
	out := make([]domain.Message, 0, 64)
	err := m.r.view(func(txn *badger.Txn) error {
		names := make(map[domain.UserID]string)
		return scanPrefix(txn, msgPrefix(int64(roomID)), true, func(key, val []byte) error {
			var msg domain.Message
			if err := unmarshal(key, val, &msg); err != nil {
				return err
			}
			name, err := usernameOf(txn, msg.AuthorID, names)
			if err != nil {
				return err
			}
			msg.AuthorName = name
			out = append(out, msg)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MessageRepo) Update(_ context.Context, msg *domain.Message) error {
	return m.r.update(func(txn *badger.Txn) error {
		key, err := m.keyOf(txn, msg.ID)
		if err != nil {
			return err
		}
		var stored domain.Message
		if err := getJSON(txn, key, &stored); err != nil {
			return err
		}
		stored.Content = msg.Content
		stored.UpdatedAt = msg.UpdatedAt
		return setJSON(txn, key, stored)
	})
}

func (m *MessageRepo) DeleteByRoom(_ context.Context, roomID domain.RoomID) error {
	return m.r.update(func(txn *badger.Txn) error {
		var ids []domain.MessageID
		err := scanPrefix(txn, msgPrefix(int64(roomID)), true, func(key, val []byte) error {
			var msg domain.Message
			if err := unmarshal(key, val, &msg); err != nil {
				return err
			}
			ids = append(ids, msg.ID)
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := txn.Delete(msgIndexKey(int64(id))); err != nil {
				return err
			}
		}
		return deletePrefix(txn, msgPrefix(int64(roomID)))
	})
}

func (m *MessageRepo) keyOf(txn *badger.Txn, id domain.MessageID) ([]byte, error) {
	item, err := txn.Get(msgIndexKey(int64(id)))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}
