package model

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityRule is a recurring weekly template owned by the tutor.
// Rules are never hard-deleted; Active=false retires them.
type AvailabilityRule struct {
	ID          uuid.UUID `json:"id"`
	TutorID     uuid.UUID `json:"tutor_id"`
	Weekday     int       `json:"weekday"` // 0 = Sunday, 6 = Saturday
	StartTime   TimeOfDay `json:"start_time"`
	EndTime     TimeOfDay `json:"end_time"`
	SlotMinutes int       `json:"slot_minutes"`
	MeetingLink *string   `json:"meeting_link"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SlotDuration returns the length of one generated slot.
func (r *AvailabilityRule) SlotDuration() time.Duration {
	return time.Duration(r.SlotMinutes) * time.Minute
}

// Validate checks the rule invariants.
func (r *AvailabilityRule) Validate() error {
	if r.Weekday < 0 || r.Weekday > 6 {
		return NewValidationError("weekday", "must be between 0 and 6")
	}
	if !r.StartTime.Valid() || !r.EndTime.Valid() {
		return NewValidationError("start_time", "must be within one day")
	}
	if r.StartTime >= r.EndTime {
		return NewValidationError("end_time", "must be after start_time")
	}
	if r.SlotMinutes <= 0 {
		return NewValidationError("slot_minutes", "must be positive")
	}
	return nil
}

// RulePatch holds the fields a tutor may change on an existing rule.
type RulePatch struct {
	Weekday     *int
	StartTime   *TimeOfDay
	EndTime     *TimeOfDay
	SlotMinutes *int
	MeetingLink *string
	Active      *bool
}

// Apply returns a copy of r with the patch applied.
func (p RulePatch) Apply(r AvailabilityRule) AvailabilityRule {
	if p.Weekday != nil {
		r.Weekday = *p.Weekday
	}
	if p.StartTime != nil {
		r.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		r.EndTime = *p.EndTime
	}
	if p.SlotMinutes != nil {
		r.SlotMinutes = *p.SlotMinutes
	}
	if p.MeetingLink != nil {
		link := *p.MeetingLink
		r.MeetingLink = &link
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
	return r
}
