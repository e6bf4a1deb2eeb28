package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/feed"
	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService runs the booking lifecycle. Callers reach it through
// ForStudent and ForTutor, which expose only what each role may do.
//
// The quota and conflict checks here give the caller a precise error early.
// The store's unique index and quota trigger are what actually keep the
// invariants under concurrent requests.
type BookingService struct {
	bookings     repository.BookingStore
	quota        *QuotaTracker
	publisher    feed.Publisher
	metrics      metrics.Recorder
	logger       *zap.Logger
	now          func() time.Time
	cancelCutoff time.Duration
}

func NewBookingService(
	bookings repository.BookingStore,
	quota *QuotaTracker,
	publisher feed.Publisher,
	recorder metrics.Recorder,
	logger *zap.Logger,
	cancelCutoff time.Duration,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		quota:        quota,
		publisher:    publisher,
		metrics:      recorder,
		logger:       logger,
		now:          time.Now,
		cancelCutoff: cancelCutoff,
	}
}

// StudentBookings are the operations open to one student.
type StudentBookings struct {
	svc     *BookingService
	student model.Student
}

// TutorBookings are the operations open to the tutor.
type TutorBookings struct {
	svc   *BookingService
	tutor model.Tutor
}

func (s *BookingService) ForStudent(student model.Student) *StudentBookings {
	return &StudentBookings{svc: s, student: student}
}

func (s *BookingService) ForTutor(tutor model.Tutor) *TutorBookings {
	return &TutorBookings{svc: s, tutor: tutor}
}

// Create books [start, end) with the tutor.
func (sb *StudentBookings) Create(ctx context.Context, tutorID uuid.UUID, start, end time.Time, meetingLink *string) (*model.Booking, error) {
	return sb.svc.create(ctx, sb.student.ID, tutorID, start, end, meetingLink)
}

// Cancel releases a future booking the student owns.
func (sb *StudentBookings) Cancel(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := sb.ownedFutureBooking(ctx, bookingID, model.BookingStatusCanceled)
	if err != nil {
		return nil, err
	}
	return sb.svc.transition(ctx, booking, model.BookingStatusCanceled)
}

// Reschedule books the new time through the same checks as Create and then
// cancels the old booking. The meeting link belongs to the new slot. If the
// old booking cannot be canceled the new one is canceled again so the student
// never holds both.
func (sb *StudentBookings) Reschedule(ctx context.Context, bookingID uuid.UUID, newStart, newEnd time.Time, meetingLink *string) (*model.Booking, error) {
	old, err := sb.ownedFutureBooking(ctx, bookingID, model.BookingStatusCanceled)
	if err != nil {
		return nil, err
	}
	if newStart.Equal(old.StartTS) && newEnd.Equal(old.EndTS) {
		return nil, model.NewValidationError("start_ts", "is unchanged")
	}

	created, err := sb.svc.create(ctx, sb.student.ID, old.TutorID, newStart, newEnd, meetingLink)
	if err != nil {
		return nil, err
	}

	if _, err := sb.svc.transition(ctx, old, model.BookingStatusCanceled); err != nil {
		if _, undoErr := sb.svc.transition(ctx, created, model.BookingStatusCanceled); undoErr != nil {
			sb.svc.logger.Error("Failed to roll back rescheduled booking",
				zap.String("booking_id", created.ID.String()),
				zap.Error(undoErr),
			)
		}
		return nil, fmt.Errorf("cancel rescheduled booking: %w", err)
	}

	sb.svc.logger.Info("Booking rescheduled",
		zap.String("old_booking_id", old.ID.String()),
		zap.String("booking_id", created.ID.String()),
		zap.Time("start_ts", created.StartTS),
	)

	return created, nil
}

// List returns the student's bookings by start time.
func (sb *StudentBookings) List(ctx context.Context) ([]*model.Booking, error) {
	id := sb.student.ID
	return sb.svc.bookings.Find(ctx, model.BookingFilter{StudentID: &id})
}

func (sb *StudentBookings) ownedFutureBooking(ctx context.Context, bookingID uuid.UUID, to model.BookingStatus) (*model.Booking, error) {
	booking, err := sb.svc.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.StudentID != sb.student.ID {
		return nil, model.ErrForbidden
	}
	if !booking.Status.CanTransition(to) {
		return nil, &model.TransitionError{From: booking.Status, To: to}
	}
	if !booking.StartTS.After(sb.svc.now().Add(sb.svc.cancelCutoff)) {
		return nil, model.NewValidationError("start_ts", "is too close to change")
	}
	return booking, nil
}

// MarkCompleted records that the session took place.
func (tb *TutorBookings) MarkCompleted(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	return tb.finish(ctx, bookingID, model.BookingStatusCompleted)
}

// MarkNoShow records that the student did not attend.
func (tb *TutorBookings) MarkNoShow(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	return tb.finish(ctx, bookingID, model.BookingStatusNoShow)
}

// SetNotes attaches notes without touching the status.
func (tb *TutorBookings) SetNotes(ctx context.Context, bookingID uuid.UUID, notes *string) (*model.Booking, error) {
	booking, err := tb.owned(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return tb.svc.bookings.UpdateNotes(ctx, booking.ID, notes)
}

// List returns the tutor's bookings by start time.
func (tb *TutorBookings) List(ctx context.Context) ([]*model.Booking, error) {
	id := tb.tutor.ID
	return tb.svc.bookings.Find(ctx, model.BookingFilter{TutorID: &id})
}

func (tb *TutorBookings) owned(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := tb.svc.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.TutorID != tb.tutor.ID {
		return nil, model.ErrForbidden
	}
	return booking, nil
}

func (tb *TutorBookings) finish(ctx context.Context, bookingID uuid.UUID, to model.BookingStatus) (*model.Booking, error) {
	booking, err := tb.owned(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	updated, err := tb.svc.transition(ctx, booking, to)
	if err != nil {
		return nil, err
	}

	if to == model.BookingStatusCompleted {
		count, err := tb.svc.quota.CompletedCount(ctx, updated.StudentID)
		if err != nil {
			tb.svc.logger.Warn("Failed to recompute quota", zap.Error(err))
		} else {
			tb.svc.logger.Info("Student quota updated",
				zap.String("student_id", updated.StudentID.String()),
				zap.Int("completed", count),
				zap.Int("limit", model.MaxCompletedSessions),
			)
		}
	}

	return updated, nil
}

func (s *BookingService) create(ctx context.Context, studentID, tutorID uuid.UUID, start, end time.Time, meetingLink *string) (*model.Booking, error) {
	if err := s.validateNew(tutorID, start, end); err != nil {
		s.metrics.RecordBookingRejected(metrics.ReasonValidation)
		return nil, err
	}

	ok, err := s.quota.CanBookMore(ctx, studentID)
	if err != nil {
		s.metrics.RecordBookingRejected(metrics.ReasonStore)
		return nil, err
	}
	if !ok {
		s.metrics.RecordBookingRejected(metrics.ReasonQuota)
		return nil, model.ErrQuotaExceeded
	}

	taken, err := s.slotTaken(ctx, tutorID, start)
	if err != nil {
		s.metrics.RecordBookingRejected(metrics.ReasonStore)
		return nil, err
	}
	if taken {
		s.metrics.RecordBookingRejected(metrics.ReasonConflict)
		return nil, model.ErrSlotConflict
	}

	booking := &model.Booking{
		TutorID:     tutorID,
		StudentID:   studentID,
		StartTS:     start.UTC(),
		EndTS:       end.UTC(),
		Status:      model.BookingStatusBooked,
		MeetingLink: meetingLink,
	}

	// The store has the final word; a racing request surfaces here.
	if err := s.bookings.Create(ctx, booking); err != nil {
		switch {
		case errors.Is(err, model.ErrSlotConflict):
			s.metrics.RecordBookingRejected(metrics.ReasonConflict)
		case errors.Is(err, model.ErrQuotaExceeded):
			s.metrics.RecordBookingRejected(metrics.ReasonQuota)
		default:
			s.metrics.RecordBookingRejected(metrics.ReasonStore)
			s.logger.Error("Failed to create booking",
				zap.String("student_id", studentID.String()),
				zap.Time("start_ts", start),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.metrics.RecordBookingCreated()
	s.notify(ctx, booking)

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("student_id", studentID.String()),
		zap.String("tutor_id", tutorID.String()),
		zap.Time("start_ts", booking.StartTS),
	)

	return booking, nil
}

func (s *BookingService) validateNew(tutorID uuid.UUID, start, end time.Time) error {
	if tutorID == uuid.Nil {
		return model.NewValidationError("tutor_id", "is required")
	}
	if !end.After(start) {
		return model.NewValidationError("end_ts", "must be after start_ts")
	}
	if !start.After(s.now()) {
		return model.NewValidationError("start_ts", "must be in the future")
	}
	return nil
}

func (s *BookingService) slotTaken(ctx context.Context, tutorID uuid.UUID, start time.Time) (bool, error) {
	status := model.BookingStatusBooked
	from := start
	to := start.Add(time.Nanosecond)

	existing, err := s.bookings.Find(ctx, model.BookingFilter{
		TutorID: &tutorID,
		Status:  &status,
		From:    &from,
		To:      &to,
	})
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return len(existing) > 0, nil
}

func (s *BookingService) transition(ctx context.Context, booking *model.Booking, to model.BookingStatus) (*model.Booking, error) {
	if !booking.Status.CanTransition(to) {
		return nil, &model.TransitionError{From: booking.Status, To: to}
	}

	updated, err := s.bookings.UpdateStatus(ctx, booking.ID, booking.Status, to)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(to))
	s.notify(ctx, updated)

	s.logger.Info("Booking status changed",
		zap.String("booking_id", updated.ID.String()),
		zap.String("from", string(booking.Status)),
		zap.String("status", string(to)),
	)

	return updated, nil
}

// notify is best effort: the feed only tells views to refetch.
func (s *BookingService) notify(ctx context.Context, booking *model.Booking) {
	err := s.publisher.Publish(ctx, feed.Change{
		Table:     feed.TableBookings,
		TutorID:   booking.TutorID,
		StudentID: booking.StudentID,
	})
	if err != nil {
		s.logger.Warn("Failed to publish booking change",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err),
		)
	}
}
