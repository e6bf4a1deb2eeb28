// Package feed carries "something changed" notifications for the bookings and
// messages tables. Events carry no payload beyond the table and row filter keys;
// consumers always refetch.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	TableBookings = "bookings"
	TableMessages = "messages"

	// Channel is the pub/sub channel name shared by all backends.
	Channel = "row_changes"
)

// Change identifies the rows that changed.
type Change struct {
	Table     string    `json:"table"`
	TutorID   uuid.UUID `json:"tutor_id"`
	StudentID uuid.UUID `json:"student_id"`
}

// Filter selects changes. Zero fields match anything.
type Filter struct {
	Table     string
	TutorID   uuid.UUID
	StudentID uuid.UUID
}

func (f Filter) Matches(c Change) bool {
	if f.Table != "" && f.Table != c.Table {
		return false
	}
	if f.TutorID != uuid.Nil && f.TutorID != c.TutorID {
		return false
	}
	if f.StudentID != uuid.Nil && f.StudentID != c.StudentID {
		return false
	}
	return true
}

type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

type Subscriber interface {
	// Subscribe delivers matching changes until ctx is done; the channel is then closed.
	Subscribe(ctx context.Context, filter Filter) (<-chan Change, error)
}

type Feed interface {
	Publisher
	Subscriber
}

func encode(c Change) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode change: %w", err)
	}
	return data, nil
}

func decode(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	return c, nil
}

// Nop drops every change.
type Nop struct{}

func (Nop) Publish(context.Context, Change) error { return nil }
