package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"    // initial
	BookingStatusCompleted BookingStatus = "completed" // terminal, counts toward quota
	BookingStatusCanceled  BookingStatus = "canceled"  // terminal
	BookingStatusNoShow    BookingStatus = "no_show"   // terminal
)

// MaxCompletedSessions is the program-wide cap on completed bookings per student.
const MaxCompletedSessions = 101

// IsTerminal reports whether no transition may leave s.
func (s BookingStatus) IsTerminal() bool {
	return s != BookingStatusBooked
}

// CanTransition reports whether the lifecycle allows s -> next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	if s != BookingStatusBooked {
		return false
	}
	switch next {
	case BookingStatusCanceled, BookingStatusCompleted, BookingStatusNoShow:
		return true
	}
	return false
}

type Booking struct {
	ID          uuid.UUID     `json:"id"`
	TutorID     uuid.UUID     `json:"tutor_id"`
	StudentID   uuid.UUID     `json:"student_id"`
	StartTS     time.Time     `json:"start_ts"` // UTC
	EndTS       time.Time     `json:"end_ts"`   // UTC
	Status      BookingStatus `json:"status"`
	MeetingLink *string       `json:"meeting_link"` // copied from the rule at booking time
	Notes       *string       `json:"notes"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsBooked checks if the booking still holds its slot
func (b *Booking) IsBooked() bool {
	return b.Status == BookingStatusBooked
}

// BookingFilter selects bookings. Zero fields are ignored.
type BookingFilter struct {
	TutorID   *uuid.UUID
	StudentID *uuid.UUID
	Status    *BookingStatus
	From      *time.Time // start_ts >= From
	To        *time.Time // start_ts < To
}

// Matches reports whether b satisfies every set field of f.
func (f BookingFilter) Matches(b *Booking) bool {
	if f.TutorID != nil && b.TutorID != *f.TutorID {
		return false
	}
	if f.StudentID != nil && b.StudentID != *f.StudentID {
		return false
	}
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if f.From != nil && b.StartTS.Before(*f.From) {
		return false
	}
	if f.To != nil && !b.StartTS.Before(*f.To) {
		return false
	}
	return true
}
