// Package badgerstore: встраиваемое хранилище чата на BadgerDB.
//
// Ключи:
//
//	user:id:{id}                   -> userRecord
//	user:name:{username}           -> id
//	user:email:{email}             -> id
//	room:{id}                      -> roomRecord
//	member:{room}:{user}           -> memberRecord
//	umember:{user}:{room}          -> пусто (обратный индекс)
//	invite:room:{room}             -> inviteRecord
//	invite:code:{code}             -> room id
//	msg:{room}:{created_ns}:{id}   -> messageRecord
//	msgidx:{id}                    -> ключ msg:...
//
// Числа дополнены нулями, поэтому префиксный скан идёт по возрастанию.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

const (
	seqBandwidth = 100
	maxTxRetries = 3
)

type Config struct {
	Path     string
	InMemory bool
	Logger   *slog.Logger
}

type sequences struct {
	users, rooms, messages, invites *badger.Sequence
}

func (s *sequences) release() {
	for _, seq := range []*badger.Sequence{s.users, s.rooms, s.messages, s.invites} {
		if seq != nil {
			_ = seq.Release()
		}
	}
}

type Store struct {
	*repos
	db   *badger.DB
	seqs *sequences
}

func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	if cfg.Logger != nil && cfg.Logger.Enabled(context.Background(), slog.LevelDebug) {
		opts = opts.WithLoggingLevel(badger.DEBUG)
	} else {
		opts = opts.WithLoggingLevel(badger.WARNING)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}

	seqs := &sequences{}
	for key, dst := range map[string]**badger.Sequence{
		"seq:user":   &seqs.users,
		"seq:room":   &seqs.rooms,
		"seq:msg":    &seqs.messages,
		"seq:invite": &seqs.invites,
	} {
		seq, err := db.GetSequence([]byte(key), seqBandwidth)
		if err != nil {
			seqs.release()
			_ = db.Close()
			return nil, fmt.Errorf("badger sequence %s: %w", key, err)
		}
		*dst = seq
	}

	return &Store{
		repos: newRepos(dbRunner{db: db}, seqs),
		db:    db,
		seqs:  seqs,
	}, nil
}

// InTx выполняет fn в одной read-write транзакции badger.
// При конфликте транзакция повторяется.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			return fn(ctx, newRepos(txnRunner{txn: txn}, s.seqs))
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 5 * time.Millisecond)
	}
	return err
}

func (s *Store) Close() {
	s.seqs.release()
	_ = s.db.Close()
}

// runner: либо отдельная транзакция на операцию, либо общая из InTx.
type runner interface {
	view(fn func(txn *badger.Txn) error) error
	update(fn func(txn *badger.Txn) error) error
}

type dbRunner struct{ db *badger.DB }

func (r dbRunner) view(fn func(txn *badger.Txn) error) error { return r.db.View(fn) }
func (r dbRunner) update(fn func(txn *badger.Txn) error) error { return r.db.Update(fn) }

type txnRunner struct{ txn *badger.Txn }

func (r txnRunner) view(fn func(txn *badger.Txn) error) error { return fn(r.txn) }
func (r txnRunner) update(fn func(txn *badger.Txn) error) error { return fn(r.txn) }

type repos struct {
	users    *UserRepo
	rooms    *RoomRepo
	members  *MemberRepo
	invites  *InviteRepo
	messages *MessageRepo
}

func newRepos(r runner, seqs *sequences) *repos {
	return &repos{
		users:    &UserRepo{r: r, seq: seqs.users},
		rooms:    &RoomRepo{r: r, seq: seqs.rooms},
		members:  &MemberRepo{r: r},
		invites:  &InviteRepo{r: r, seq: seqs.invites},
		messages: &MessageRepo{r: r, seq: seqs.messages},
	}
}

func (r *repos) Users() repository.UserRepository { return r.users }
func (r *repos) Rooms() repository.RoomRepository { return r.rooms }
func (r *repos) Members() repository.MemberRepository { return r.members }
func (r *repos) Invites() repository.InviteRepository { return r.invites }
func (r *repos) Messages() repository.MessageRepository { return r.messages }
