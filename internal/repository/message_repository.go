package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = `id, tutor_id, student_id, sender_id, body, read_at, created_at`

type MessageRepository struct {
	*base.Repository
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{Repository: base.NewRepository(pool)}
}

func scanMessage(row interface{ Scan(dest ...any) error }) (*model.Message, error) {
	var m model.Message
	err := row.Scan(
		&m.ID,
		&m.TutorID,
		&m.StudentID,
		&m.SenderID,
		&m.Body,
		&m.ReadAt,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	query := `
		INSERT INTO messages (tutor_id, student_id, sender_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		message.TutorID,
		message.StudentID,
		message.SenderID,
		message.Body,
	).Scan(&message.ID, &message.CreatedAt)

	return base.MapError("create message", err)
}

func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	m, err := scanMessage(r.QueryRow(ctx, query, id))
	if err != nil {
		return nil, base.MapError("get message", err)
	}
	return m, nil
}

func (r *MessageRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Message, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, base.MapError(op, err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, base.MapError("scan message", err)
		}
		messages = append(messages, m)
	}

	return messages, base.MapError(op, rows.Err())
}

func (r *MessageRepository) ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE tutor_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, "list messages by tutor", query, tutorID)
}

func (r *MessageRepository) ListThread(ctx context.Context, studentID uuid.UUID) ([]*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE student_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, "list message thread", query, studentID)
}

func (r *MessageRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (*model.Message, error) {
	query := `
		UPDATE messages
		SET read_at = $2
		WHERE id = $1
		RETURNING ` + messageColumns

	m, err := scanMessage(r.QueryRow(ctx, query, id, at.UTC()))
	if err != nil {
		return nil, base.MapError("mark message read", err)
	}
	return m, nil
}

func (r *MessageRepository) MarkThreadRead(ctx context.Context, tutorID, studentID, readerID uuid.UUID, at time.Time) (int64, error) {
	query := `
		UPDATE messages
		SET read_at = $4
		WHERE tutor_id = $1 AND student_id = $2 AND sender_id <> $3 AND read_at IS NULL
	`

	affected, err := r.ExecAffected(ctx, query, tutorID, studentID, readerID, at.UTC())
	if err != nil {
		return 0, base.MapError("mark thread read", err)
	}
	return affected, nil
}
