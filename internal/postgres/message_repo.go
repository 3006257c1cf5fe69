package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/jackc/pgx/v5"
)

type MessageRepo struct {
	q querier
}

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) (domain.MessageID, error) {
	var id int64
	err := r.q.QueryRow(ctx, qMessageInsert,
		int64(m.RoomID), int64(m.AuthorID), m.Content, m.CreatedAt, m.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return domain.MessageID(id), nil
}

func (r *MessageRepo) Get(ctx context.Context, id domain.MessageID) (*domain.Message, error) {
	m, err := scanMessage(r.q.QueryRow(ctx, qMessageByID, int64(id)))
	if err != nil {
		return nil, mapPgError(err)
	}
	return m, nil
}

func (r *MessageRepo) ListByRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Message, error) {
	rows, err := r.q.Query(ctx, qMessageByRoom, int64(roomID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Message, 0, 64)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *MessageRepo) Update(ctx context.Context, m *domain.Message) error {
	cmd, err := r.q.Exec(ctx, qMessageUpdate, int64(m.ID), m.Content, m.UpdatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MessageRepo) DeleteByRoom(ctx context.Context, roomID domain.RoomID) error {
	_, err := r.q.Exec(ctx, qMessageDeleteByRoom, int64(roomID))
	return err
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		m                  domain.Message
		id, room, authorID int64
	)
	if err := row.Scan(
		&id,
		&room,
		&authorID,
		&m.AuthorName,
		&m.Content,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.ID, m.RoomID, m.AuthorID = domain.MessageID(id), domain.RoomID(room), domain.UserID(authorID)
	return &m, nil
}
