package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, tutor_id, student_id, start_ts, end_ts, status, meeting_link, notes, created_at, updated_at`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

func scanBooking(row interface{ Scan(dest ...any) error }) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.TutorID,
		&b.StudentID,
		&b.StartTS,
		&b.EndTS,
		&b.Status,
		&b.MeetingLink,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartTS = b.StartTS.UTC()
	b.EndTS = b.EndTS.UTC()
	return &b, nil
}

// Create inserts a booking. The partial unique index and the quota trigger
// turn racing inserts into ErrSlotConflict / ErrQuotaExceeded.
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (tutor_id, student_id, start_ts, end_ts, status, meeting_link, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.TutorID,
		booking.StudentID,
		booking.StartTS.UTC(),
		booking.EndTS.UTC(),
		booking.Status,
		booking.MeetingLink,
		booking.Notes,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	return base.MapError("create booking", err)
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		return nil, base.MapError("get booking by id", err)
	}
	return b, nil
}

// Find builds the WHERE clause from the set fields of filter
func (r *BookingRepository) Find(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.TutorID != nil {
		add("tutor_id = $%d", *filter.TutorID)
	}
	if filter.StudentID != nil {
		add("student_id = $%d", *filter.StudentID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.From != nil {
		add("start_ts >= $%d", filter.From.UTC())
	}
	if filter.To != nil {
		add("start_ts < $%d", filter.To.UTC())
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY start_ts ASC`

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, base.MapError("find bookings", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, base.MapError("scan booking", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, base.MapError("find bookings", rows.Err())
}

// UpdateStatus is a compare-and-set on status
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns

	b, err := scanBooking(r.QueryRow(ctx, query, id, from, to))
	if err == nil {
		return b, nil
	}
	if !base.IsNotFound(err) {
		return nil, base.MapError("update booking status", err)
	}

	// Nothing matched: either the row is gone or its status moved on.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &model.TransitionError{From: current.Status, To: to}
}

func (r *BookingRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (*model.Booking, error) {
	query := `
		UPDATE bookings
		SET notes = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + bookingColumns

	b, err := scanBooking(r.QueryRow(ctx, query, id, notes))
	if err != nil {
		return nil, base.MapError("update booking notes", err)
	}
	return b, nil
}

// CompletedCount calls the server-side aggregate
func (r *BookingRepository) CompletedCount(ctx context.Context, studentID uuid.UUID) (int, error) {
	var count int
	err := r.QueryRow(ctx, `SELECT get_completed_sessions_count($1)`, studentID).Scan(&count)
	if err != nil {
		return 0, base.MapError("get completed sessions count", err)
	}
	return count, nil
}
