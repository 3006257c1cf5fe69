package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
)

type MemberRepo struct {
	q querier
}

func (r *MemberRepo) Add(ctx context.Context, m *domain.Membership) error {
	_, err := r.q.Exec(ctx, qMemberInsert, int64(m.RoomID), int64(m.UserID), m.JoinedAt, m.LastSeen)
	return mapPgError(err)
}

func (r *MemberRepo) Exists(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, qMemberExists, int64(roomID), int64(userID)).Scan(&exists)
	return exists, err
}

func (r *MemberRepo) Count(ctx context.Context, roomID domain.RoomID) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, qMemberCount, int64(roomID)).Scan(&count)
	return count, err
}

func (r *MemberRepo) ListByRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Member, error) {
	rows, err := r.q.Query(ctx, qMemberList, int64(roomID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Member
	for rows.Next() {
		var (
			m  domain.Member
			id int64
		)
		if err := rows.Scan(&id, &m.Username, &m.JoinedAt, &m.LastSeen); err != nil {
			return nil, err
		}
		m.UserID = domain.UserID(id)
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *MemberRepo) Remove(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	cmd, err := r.q.Exec(ctx, qMemberDelete, int64(roomID), int64(userID))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MemberRepo) Touch(ctx context.Context, roomID domain.RoomID, userID domain.UserID, at time.Time) error {
	cmd, err := r.q.Exec(ctx, qMemberTouch, int64(roomID), int64(userID), at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MemberRepo) DeleteByRoom(ctx context.Context, roomID domain.RoomID) error {
	_, err := r.q.Exec(ctx, qMemberDeleteByRoom, int64(roomID))
	return err
}

func (r *MemberRepo) CountByUser(ctx context.Context, userID domain.UserID) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, qMemberCountByUser, int64(userID)).Scan(&count)
	return count, err
}
