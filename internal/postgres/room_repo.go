package postgres

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/jackc/pgx/v5"
)

type RoomRepo struct {
	q querier
}

func (r *RoomRepo) Create(ctx context.Context, room *domain.Room) (domain.RoomID, error) {
	var id int64
	err := r.q.QueryRow(ctx, qRoomInsert,
		room.Title, room.MaxMembers, room.IsPrivate, int64(room.CreatorID), room.CreatedAt, room.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("roomRepo.Create: %w", mapPgError(err))
	}
	return domain.RoomID(id), nil
}

func (r *RoomRepo) Get(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	return r.getOne(ctx, qRoomByID, id)
}

// Lock блокирует строку комнаты: параллельные транзакции по той же комнате будут ждать.
func (r *RoomRepo) Lock(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	return r.getOne(ctx, qRoomLock, id)
}

func (r *RoomRepo) List(ctx context.Context) ([]domain.RoomSummary, error) {
	return r.summaries(ctx, qRoomList)
}

func (r *RoomRepo) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.RoomSummary, error) {
	return r.summaries(ctx, qRoomListByUser, int64(userID))
}

func (r *RoomRepo) Delete(ctx context.Context, id domain.RoomID) error {
	cmd, err := r.q.Exec(ctx, qRoomDelete, int64(id))
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RoomRepo) getOne(ctx context.Context, sql string, id domain.RoomID) (*domain.Room, error) {
	room, err := scanRoom(r.q.QueryRow(ctx, sql, int64(id)))
	if err != nil {
		return nil, mapPgError(err)
	}
	return room, nil
}

func (r *RoomRepo) summaries(ctx context.Context, sql string, args ...any) ([]domain.RoomSummary, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.RoomSummary, 0, 16)
	for rows.Next() {
		var (
			s         domain.RoomSummary
			id, owner int64
		)
		if err := rows.Scan(
			&id,
			&s.Title,
			&s.MaxMembers,
			&s.IsPrivate,
			&owner,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.MemberCount,
		); err != nil {
			return nil, err
		}
		s.ID, s.CreatorID = domain.RoomID(id), domain.UserID(owner)
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var (
		room      domain.Room
		id, owner int64
	)
	if err := row.Scan(
		&id,
		&room.Title,
		&room.MaxMembers,
		&room.IsPrivate,
		&owner,
		&room.CreatedAt,
		&room.UpdatedAt,
	); err != nil {
		return nil, err
	}
	room.ID, room.CreatorID = domain.RoomID(id), domain.UserID(owner)
	return &room, nil
}
