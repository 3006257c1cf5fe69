package badgerstore

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

var inviteRoomPrefix = []byte("invite:room:")

type InviteRepo struct {
	r   runner
	seq *badger.Sequence
}

func (i *InviteRepo) Create(_ context.Context, c *domain.InviteCode) (int64, error) {
	var id int64
	err := i.r.update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{inviteRoomKey(int64(c.RoomID)), inviteCodeKey(c.Code)} {
			ok, err := exists(txn, key)
			if err != nil {
				return err
			}
			if ok {
				return repository.ErrAlreadyExists
			}
		}

		var err error
		if id, err = nextID(i.seq); err != nil {
			return err
		}
		rec := *c
		rec.ID = id
		if err := setJSON(txn, inviteRoomKey(int64(c.RoomID)), rec); err != nil {
			return err
		}
		return setID(txn, inviteCodeKey(c.Code), int64(c.RoomID))
	})
	return id, err
}

func (i *InviteRepo) GetByRoom(_ context.Context, roomID domain.RoomID) (*domain.InviteCode, error) {
	var c domain.InviteCode
	err := i.r.view(func(txn *badger.Txn) error {
		return getJSON(txn, inviteRoomKey(int64(roomID)), &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (i *InviteRepo) GetByCode(_ context.Context, code string) (*domain.InviteCode, error) {
	var c domain.InviteCode
	err := i.r.view(func(txn *badger.Txn) error {
		room, err := getID(txn, inviteCodeKey(code))
		if err != nil {
			return err
		}
		if err := getJSON(txn, inviteRoomKey(room), &c); err != nil {
			return err
		}
		if c.Code != code {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (i *InviteRepo) DeleteByRoom(_ context.Context, roomID domain.RoomID) error {
	return i.r.update(func(txn *badger.Txn) error {
		var c domain.InviteCode
		err := getJSON(txn, inviteRoomKey(int64(roomID)), &c)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return deleteInvite(txn, &c)
	})
}

// DeleteExpired удаляет все коды с expires_at <= now одной транзакцией.
func (i *InviteRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	err := i.r.update(func(txn *badger.Txn) error {
		var expired []domain.InviteCode
		err := scanPrefix(txn, inviteRoomPrefix, true, func(key, val []byte) error {
			var c domain.InviteCode
			if err := unmarshal(key, val, &c); err != nil {
				return err
			}
			if c.Expired(now) {
				expired = append(expired, c)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for idx := range expired {
			if err := deleteInvite(txn, &expired[idx]); err != nil {
				return err
			}
		}
		n = int64(len(expired))
		return nil
	})
	return n, err
}

func deleteInvite(txn *badger.Txn, c *domain.InviteCode) error {
	if err := txn.Delete(inviteRoomKey(int64(c.RoomID))); err != nil {
		return err
	}
	return txn.Delete(inviteCodeKey(c.Code))
}
