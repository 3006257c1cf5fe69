package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
)

type UserRepo struct {
	q querier
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (domain.UserID, error) {
	var id int64
	err := r.q.QueryRow(ctx, qUserInsert,
		u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return domain.UserID(id), nil
}

func (r *UserRepo) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.getOne(ctx, qUserByID, int64(id))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, qUserByUsername, username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, qUserByEmail, email)
}

func (r *UserRepo) Delete(ctx context.Context, id domain.UserID) error {
	cmd, err := r.q.Exec(ctx, qUserDelete, int64(id))
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, sql string, arg any) (*domain.User, error) {
	var (
		u  domain.User
		id int64
	)
	err := r.q.QueryRow(ctx, sql, arg).Scan(
		&id,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	u.ID = domain.UserID(id)
	return &u, nil
}
