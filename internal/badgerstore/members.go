package badgerstore

import (
	"context"
	"sort"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

type MemberRepo struct {
	r runner
}

func (m *MemberRepo) Add(_ context.Context, ms *domain.Membership) error {
	room, user := int64(ms.RoomID), int64(ms.UserID)
	return m.r.update(func(txn *badger.Txn) error {
		ok, err := exists(txn, memberKey(room, user))
		if err != nil {
			return err
		}
		if ok {
			return repository.ErrAlreadyExists
		}
		if err := setJSON(txn, memberKey(room, user), ms); err != nil {
			return err
		}
		return txn.Set(userRoomKey(user, room), []byte{})
	})
}

func (m *MemberRepo) Exists(_ context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	var ok bool
	err := m.r.view(func(txn *badger.Txn) error {
		var err error
		ok, err = exists(txn, memberKey(int64(roomID), int64(userID)))
		return err
	})
	return ok, err
}

func (m *MemberRepo) Count(_ context.Context, roomID domain.RoomID) (int, error) {
	var n int
	err := m.r.view(func(txn *badger.Txn) error {
		var err error
		n, err = countPrefix(txn, memberPrefix(int64(roomID)))
		return err
	})
	return n, err
}

func (m *MemberRepo) ListByRoom(_ context.Context, roomID domain.RoomID) ([]domain.Member, error) {
	var list []domain.Member
	err := m.r.view(func(txn *badger.Txn) error {
		names := make(map[domain.UserID]string)
		return scanPrefix(txn, memberPrefix(int64(roomID)), true, func(key, val []byte) error {
			var ms domain.Membership
			if err := unmarshal(key, val, &ms); err != nil {
				return err
			}
			name, err := usernameOf(txn, ms.UserID, names)
			if err != nil {
				return err
			}
			list = append(list, domain.Member{
				UserID:   ms.UserID,
				Username: name,
				JoinedAt: ms.JoinedAt,
				LastSeen: ms.LastSeen,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].JoinedAt.Before(list[j].JoinedAt) })
	return list, nil
}

func (m *MemberRepo) Remove(_ context.Context, roomID domain.RoomID, userID domain.UserID) error {
	room, user := int64(roomID), int64(userID)
	return m.r.update(func(txn *badger.Txn) error {
		ok, err := exists(txn, memberKey(room, user))
		if err != nil {
			return err
		}
		if !ok {
			return repository.ErrNotFound
		}
		if err := txn.Delete(memberKey(room, user)); err != nil {
			return err
		}
		return txn.Delete(userRoomKey(user, room))
	})
}

func (m *MemberRepo) Touch(_ context.Context, roomID domain.RoomID, userID domain.UserID, at time.Time) error {
	key := memberKey(int64(roomID), int64(userID))
	return m.r.update(func(txn *badger.Txn) error {
		var ms domain.Membership
		if err := getJSON(txn, key, &ms); err != nil {
			return err
		}
		ms.LastSeen = at
		return setJSON(txn, key, ms)
	})
}

func (m *MemberRepo) DeleteByRoom(_ context.Context, roomID domain.RoomID) error {
	room := int64(roomID)
	prefix := memberPrefix(room)
	return m.r.update(func(txn *badger.Txn) error {
		var users []domain.UserID
		err := scanPrefix(txn, prefix, true, func(key, val []byte) error {
			var ms domain.Membership
			if err := unmarshal(key, val, &ms); err != nil {
				return err
			}
			users = append(users, ms.UserID)
			return nil
		})
		if err != nil {
			return err
		}
		for _, u := range users {
			if err := txn.Delete(memberKey(room, int64(u))); err != nil {
				return err
			}
			if err := txn.Delete(userRoomKey(int64(u), room)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *MemberRepo) CountByUser(_ context.Context, userID domain.UserID) (int, error) {
	var n int
	err := m.r.view(func(txn *badger.Txn) error {
		var err error
		n, err = countPrefix(txn, userRoomsPrefix(int64(userID)))
		return err
	})
	return n, err
}
