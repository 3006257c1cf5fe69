package badgerstore

import (
	"context"
	"errors"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

type UserRepo struct {
	r   runner
	seq *badger.Sequence
}

func (u *UserRepo) Create(_ context.Context, user *domain.User) (domain.UserID, error) {
	var id int64
	err := u.r.update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{userNameKey(user.Username), userEmailKey(user.Email)} {
			ok, err := exists(txn, key)
			if err != nil {
				return err
			}
			if ok {
				return repository.ErrAlreadyExists
			}
		}

		var err error
		if id, err = nextID(u.seq); err != nil {
			return err
		}
		rec := *user
		rec.ID = domain.UserID(id)
		if err := setJSON(txn, userKey(id), rec); err != nil {
			return err
		}
		if err := setID(txn, userNameKey(user.Username), id); err != nil {
			return err
		}
		return setID(txn, userEmailKey(user.Email), id)
	})
	return domain.UserID(id), err
}

func (u *UserRepo) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	var user domain.User
	err := u.r.view(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(int64(id)), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return u.byIndex(ctx, userNameKey(username))
}

func (u *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.byIndex(ctx, userEmailKey(email))
}

func (u *UserRepo) Delete(_ context.Context, id domain.UserID) error {
	return u.r.update(func(txn *badger.Txn) error {
		var user domain.User
		if err := getJSON(txn, userKey(int64(id)), &user); err != nil {
			return err
		}
		for _, key := range [][]byte{userKey(int64(id)), userNameKey(user.Username), userEmailKey(user.Email)} {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (u *UserRepo) byIndex(_ context.Context, key []byte) (*domain.User, error) {
	var user domain.User
	err := u.r.view(func(txn *badger.Txn) error {
		id, err := getID(txn, key)
		if err != nil {
			return err
		}
		return getJSON(txn, userKey(id), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// usernameOf возвращает пустую строку для удалённого пользователя.
func usernameOf(txn *badger.Txn, id domain.UserID, cache map[domain.UserID]string) (string, error) {
	if name, ok := cache[id]; ok {
		return name, nil
	}
	var user domain.User
	err := getJSON(txn, userKey(int64(id)), &user)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	if cache != nil {
		cache[id] = user.Username
	}
	return user.Username, nil
}
