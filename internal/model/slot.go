package model

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a concrete bookable interval derived from one AvailabilityRule for one date.
type Slot struct {
	RuleID      uuid.UUID `json:"rule_id"`
	TutorID     uuid.UUID `json:"tutor_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	MeetingLink *string   `json:"meeting_link"`
}
