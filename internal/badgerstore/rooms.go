package badgerstore

import (
	"context"
	"strconv"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

type RoomRepo struct {
	r   runner
	seq *badger.Sequence
}

func (rr *RoomRepo) Create(_ context.Context, room *domain.Room) (domain.RoomID, error) {
	var id int64
	err := rr.r.update(func(txn *badger.Txn) error {
		var err error
		if id, err = nextID(rr.seq); err != nil {
			return err
		}
		rec := *room
		rec.ID = domain.RoomID(id)
		return setJSON(txn, roomKey(id), rec)
	})
	return domain.RoomID(id), err
}

func (rr *RoomRepo) Get(_ context.Context, id domain.RoomID) (*domain.Room, error) {
	var room domain.Room
	err := rr.r.view(func(txn *badger.Txn) error {
		return getJSON(txn, roomKey(int64(id)), &room)
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Lock читает комнату внутри транзакции: конкурентная запись той же комнаты
// вызовет ErrConflict при коммите. Сериализация остаётся на уровне сервиса.
func (rr *RoomRepo) Lock(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	return rr.Get(ctx, id)
}

func (rr *RoomRepo) List(_ context.Context) ([]domain.RoomSummary, error) {
	var out []domain.RoomSummary
	err := rr.r.view(func(txn *badger.Txn) error {
		return scanPrefix(txn, roomPrefix, true, func(key, val []byte) error {
			var room domain.Room
			if err := unmarshal(key, val, &room); err != nil {
				return err
			}
			n, err := countPrefix(txn, memberPrefix(int64(room.ID)))
			if err != nil {
				return err
			}
			out = append(out, domain.RoomSummary{Room: room, MemberCount: n})
			return nil
		})
	})
	return out, err
}

func (rr *RoomRepo) ListByUser(_ context.Context, userID domain.UserID) ([]domain.RoomSummary, error) {
	var out []domain.RoomSummary
	prefix := userRoomsPrefix(int64(userID))
	err := rr.r.view(func(txn *badger.Txn) error {
		var ids []int64
		err := scanPrefix(txn, prefix, false, func(key, _ []byte) error {
			id, err := strconv.ParseInt(string(key[len(prefix):]), 10, 64)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			var room domain.Room
			if err := getJSON(txn, roomKey(id), &room); err != nil {
				return err
			}
			n, err := countPrefix(txn, memberPrefix(id))
			if err != nil {
				return err
			}
			out = append(out, domain.RoomSummary{Room: room, MemberCount: n})
		}
		return nil
	})
	return out, err
}

func (rr *RoomRepo) Delete(_ context.Context, id domain.RoomID) error {
	return rr.r.update(func(txn *badger.Txn) error {
		ok, err := exists(txn, roomKey(int64(id)))
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrNotFound
		}
		return txn.Delete(roomKey(int64(id)))
	})
}
