package badgerstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

func pad(id int64) string { return fmt.Sprintf("%020d", id) }

func userKey(id int64) []byte { return []byte("user:id:" + pad(id)) }
func userNameKey(name string) []byte { return []byte("user:name:" + name) }
func userEmailKey(email string) []byte { return []byte("user:email:" + email) }
func roomKey(id int64) []byte { return []byte("room:" + pad(id)) }
func memberPrefix(room int64) []byte { return []byte("member:" + pad(room) + ":") }
func memberKey(room, user int64) []byte {
	return append(memberPrefix(room), pad(user)...)
}
func userRoomsPrefix(user int64) []byte { return []byte("umember:" + pad(user) + ":") }
func userRoomKey(user, room int64) []byte {
	return append(userRoomsPrefix(user), pad(room)...)
}
func inviteRoomKey(room int64) []byte { return []byte("invite:room:" + pad(room)) }
func inviteCodeKey(code string) []byte { return []byte("invite:code:" + code) }
func msgPrefix(room int64) []byte { return []byte("msg:" + pad(room) + ":") }
func msgKey(room, createdNs, id int64) []byte {
	return append(msgPrefix(room), fmt.Sprintf("%019d:%s", createdNs, pad(id))...)
}
func msgIndexKey(id int64) []byte { return []byte("msgidx:" + pad(id)) }

var roomPrefix = []byte("room:")

func getJSON(txn *badger.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return repository.ErrNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

func getID(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}
	var id int64
	err = item.Value(func(val []byte) error {
		id, err = strconv.ParseInt(string(val), 10, 64)
		return err
	})
	return id, err
}

func setID(txn *badger.Txn, key []byte, id int64) error {
	return txn.Set(key, []byte(strconv.FormatInt(id, 10)))
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// scanPrefix обходит ключи с префиксом по возрастанию.
func scanPrefix(txn *badger.Txn, prefix []byte, withValues bool, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = withValues
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		var val []byte
		if withValues {
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			val = v
		}
		if err := fn(key, val); err != nil {
			return err
		}
	}
	return nil
}

func countPrefix(txn *badger.Txn, prefix []byte) (int, error) {
	n := 0
	err := scanPrefix(txn, prefix, false, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// deletePrefix собирает ключи и удаляет их в той же транзакции.
func deletePrefix(txn *badger.Txn, prefix []byte) error {
	var keys [][]byte
	if err := scanPrefix(txn, prefix, false, func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	// Sequence начинается с 0, а id с 1.
	return int64(n) + 1, nil
}

func unmarshal(key, val []byte, dst any) error {
	if err := json.Unmarshal(val, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}
