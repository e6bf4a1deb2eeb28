// Package repository defines the persistence interfaces consumed by the engine
// and their PostgreSQL implementations.
package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/google/uuid"
)

// ProfileStore persists profiles.
type ProfileStore interface {
	// Create inserts a profile and fills ID and timestamps.
	Create(ctx context.Context, profile *model.Profile) error
	// GetByID returns model.ErrNotFound for unknown ids.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	// GetByTelegramID returns model.ErrNotFound when nobody registered with that account.
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.Profile, error)
	// FindTutor returns the single tutor of the deployment.
	FindTutor(ctx context.Context) (*model.Profile, error)
	// ListByIDs returns the profiles that exist among ids, in no particular order.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Profile, error)
}

// AvailabilityRuleStore persists recurring availability templates.
type AvailabilityRuleStore interface {
	Create(ctx context.Context, rule *model.AvailabilityRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityRule, error)
	// Update writes every mutable field of rule and refreshes UpdatedAt.
	Update(ctx context.Context, rule *model.AvailabilityRule) error
	// Deactivate flips active to false. Rules are never deleted.
	Deactivate(ctx context.Context, id uuid.UUID) error
	// ListActive returns active rules ordered by weekday and start time.
	ListActive(ctx context.Context) ([]*model.AvailabilityRule, error)
}

// BookingStore persists bookings.
//
// Implementations must enforce, atomically with the write:
//   - at most one booked row per (tutor_id, start_ts), violating inserts fail with model.ErrSlotConflict;
//   - no booked insert and no transition to completed once the student has
//     model.MaxCompletedSessions completed rows, failing with model.ErrQuotaExceeded.
type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Find returns matching bookings ordered by start_ts ascending.
	Find(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	// UpdateStatus moves the booking from one status to another only if it is
	// still in from. It returns a *model.TransitionError when it is not.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (*model.Booking, error)
	// CompletedCount is computed by the store, not aggregated by the caller.
	CompletedCount(ctx context.Context, studentID uuid.UUID) (int, error)
}

// MessageStore persists tutor/student messages.
type MessageStore interface {
	Create(ctx context.Context, message *model.Message) error
	// ListByTutor returns every message of the tutor, newest first.
	ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]*model.Message, error)
	// ListThread returns one student's thread, oldest first.
	ListThread(ctx context.Context, studentID uuid.UUID) ([]*model.Message, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Message, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (*model.Message, error)
	// MarkThreadRead marks every unread message of the thread not sent by readerID.
	MarkThreadRead(ctx context.Context, tutorID, studentID, readerID uuid.UUID, at time.Time) (int64, error)
}

var (
	_ ProfileStore          = (*ProfileRepository)(nil)
	_ AvailabilityRuleStore = (*AvailabilityRuleRepository)(nil)
	_ BookingStore          = (*BookingRepository)(nil)
	_ MessageStore          = (*MessageRepository)(nil)
)
