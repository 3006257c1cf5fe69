// Package postgres: реализация repository.Store поверх pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier: общий слой над пулом и pgx.Tx, чтобы репозитории работали и внутри транзакции.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DB: то, что нужно от *pgxpool.Pool (и от pgxmock в тестах).
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

type repos struct {
	users    *UserRepo
	rooms    *RoomRepo
	members  *MemberRepo
	invites  *InviteRepo
	messages *MessageRepo
}

func newRepos(q querier) *repos {
	return &repos{
		users:    &UserRepo{q: q},
		rooms:    &RoomRepo{q: q},
		members:  &MemberRepo{q: q},
		invites:  &InviteRepo{q: q},
		messages: &MessageRepo{q: q},
	}
}

func (r *repos) Users() repository.UserRepository { return r.users }
func (r *repos) Rooms() repository.RoomRepository { return r.rooms }
func (r *repos) Members() repository.MemberRepository { return r.members }
func (r *repos) Invites() repository.InviteRepository { return r.invites }
func (r *repos) Messages() repository.MessageRepository { return r.messages }

type Store struct {
	*repos
	db        DB
	txTimeout time.Duration
}

func NewStore(db DB, txTimeout time.Duration) *Store {
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &Store{repos: newRepos(db), db: db, txTimeout: txTimeout}
}

// InTx открывает транзакцию с дедлайном; fn получает репозитории, привязанные к tx.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(ctx, newRepos(tx))
	})
}

func (s *Store) Close() { s.db.Close() }

func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 - unique violation
		if pgErr.Code == "23505" {
			return repository.ErrAlreadyExists
		}
	}
	return err
}
