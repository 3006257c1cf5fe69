package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type InviteRepo struct {
	q querier
}

func (r *InviteRepo) Create(ctx context.Context, c *domain.InviteCode) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, qInviteInsert, int64(c.RoomID), c.Code, c.CreatedAt, c.ExpiresAt).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

func (r *InviteRepo) GetByRoom(ctx context.Context, roomID domain.RoomID) (*domain.InviteCode, error) {
	return r.getOne(ctx, qInviteByRoom, int64(roomID))
}

func (r *InviteRepo) GetByCode(ctx context.Context, code string) (*domain.InviteCode, error) {
	return r.getOne(ctx, qInviteByCode, code)
}

func (r *InviteRepo) DeleteByRoom(ctx context.Context, roomID domain.RoomID) error {
	_, err := r.q.Exec(ctx, qInviteDeleteByRoom, int64(roomID))
	return err
}

// DeleteExpired удаляет все коды с expires_at <= now одним запросом.
func (r *InviteRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.q.Exec(ctx, qInviteDeleteExpired, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *InviteRepo) getOne(ctx context.Context, sql string, arg any) (*domain.InviteCode, error) {
	var (
		c      domain.InviteCode
		roomID int64
	)
	err := r.q.QueryRow(ctx, sql, arg).Scan(&c.ID, &roomID, &c.Code, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	c.RoomID = domain.RoomID(roomID)
	return &c, nil
}
