package base

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// CodeUniqueViolation is the SQLSTATE for unique index violations.
	CodeUniqueViolation = "23505"
	// CodeQuotaExceeded is raised by the bookings quota trigger.
	CodeQuotaExceeded = "QE001"

	// BookedSlotIndex is the partial unique index on (tutor_id, start_ts) WHERE status = 'booked'.
	BookedSlotIndex = "bookings_booked_slot_uniq"
)

// Repository holds the pool shared by the PostgreSQL repositories
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Pool returns the connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

func (r *Repository) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return r.pool.QueryRow(ctx, query, args...)
}

func (r *Repository) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return r.pool.Query(ctx, query, args...)
}

// ExecAffected runs a command and returns the number of affected rows
func (r *Repository) ExecAffected(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IsNotFound reports whether err means "no rows"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// MapError translates driver errors into the engine's error taxonomy.
// Anything it does not recognise is wrapped with op and passed through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == CodeUniqueViolation && pgErr.ConstraintName == BookedSlotIndex:
			return fmt.Errorf("%s: %w", op, model.ErrSlotConflict)
		case pgErr.Code == CodeQuotaExceeded:
			return fmt.Errorf("%s: %w", op, model.ErrQuotaExceeded)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
