package service

import (
	"iter"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/google/uuid"
)

type slotKey struct {
	tutorID uuid.UUID
	start   int64
}

// SlotGenerator expands availability rules into bookable slots. It is pure:
// the returned sequences read only the inputs captured at call time, so they
// can be ranged over any number of times with identical results.
type SlotGenerator struct {
	loc *time.Location
}

// NewSlotGenerator anchors rule times of day in loc (the tutor's timezone).
func NewSlotGenerator(loc *time.Location) *SlotGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &SlotGenerator{loc: loc}
}

func (g *SlotGenerator) Location() *time.Location {
	return g.loc
}

// Day returns midnight of date's calendar day in the generator's location.
func (g *SlotGenerator) Day(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, g.loc)
}

// Generate yields the slots of date. A slot is dropped when its start is not
// strictly after now, or when a booked booking of the same tutor starts at the
// same instant. Slots of one rule are chronological; rules are visited in the
// order given and overlapping rules are not merged.
func (g *SlotGenerator) Generate(date time.Time, rules []*model.AvailabilityRule, bookings []*model.Booking, now time.Time) iter.Seq[model.Slot] {
	day := g.Day(date)
	weekday := int(day.Weekday())

	taken := make(map[slotKey]struct{}, len(bookings))
	for _, b := range bookings {
		if b.IsBooked() {
			taken[slotKey{b.TutorID, b.StartTS.UnixNano()}] = struct{}{}
		}
	}

	var matching []*model.AvailabilityRule
	for _, r := range rules {
		if r.Active && r.Weekday == weekday && r.Validate() == nil {
			matching = append(matching, r)
		}
	}

	return func(yield func(model.Slot) bool) {
		for _, rule := range matching {
			step := rule.SlotDuration()
			start := rule.StartTime.On(day, g.loc)
			end := rule.EndTime.On(day, g.loc)

			for cur := start; !cur.Add(step).After(end); cur = cur.Add(step) {
				if !cur.After(now) {
					continue
				}
				if _, ok := taken[slotKey{rule.TutorID, cur.UnixNano()}]; ok {
					continue
				}
				slot := model.Slot{
					RuleID:      rule.ID,
					TutorID:     rule.TutorID,
					Start:       cur.UTC(),
					End:         cur.Add(step).UTC(),
					MeetingLink: rule.MeetingLink,
				}
				if !yield(slot) {
					return
				}
			}
		}
	}
}
