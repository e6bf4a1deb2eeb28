package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/google/uuid"
)

// QuotaTracker counts completed sessions against model.MaxCompletedSessions.
// The count comes from the store's aggregate so it is never stale client state.
type QuotaTracker struct {
	bookings repository.BookingStore
}

func NewQuotaTracker(bookings repository.BookingStore) *QuotaTracker {
	return &QuotaTracker{bookings: bookings}
}

func (q *QuotaTracker) CompletedCount(ctx context.Context, studentID uuid.UUID) (int, error) {
	count, err := q.bookings.CompletedCount(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("completed count: %w", err)
	}
	return count, nil
}

// CanBookMore reports whether the student is still under the cap.
func (q *QuotaTracker) CanBookMore(ctx context.Context, studentID uuid.UUID) (bool, error) {
	count, err := q.CompletedCount(ctx, studentID)
	if err != nil {
		return false, err
	}
	return count < model.MaxCompletedSessions, nil
}

// Remaining returns how many more sessions the student may complete.
func (q *QuotaTracker) Remaining(ctx context.Context, studentID uuid.UUID) (int, error) {
	count, err := q.CompletedCount(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return max(model.MaxCompletedSessions-count, 0), nil
}
