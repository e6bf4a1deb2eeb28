package controller

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/render"
	"github.com/Freeeeeet/tutor_booking/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandArgs(t *testing.T) {
	assert.Nil(t, commandArgs("/mybookings"))
	assert.Equal(t, []string{"2026-10-19", "09:00"}, commandArgs("/book  2026-10-19   09:00 "))
}

func TestParseDate(t *testing.T) {
	now := time.Date(2026, 10, 19, 22, 30, 0, 0, time.UTC)

	got, err := parseDate(nil, time.UTC, now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = parseDate([]string{"2026-10-21"}, time.UTC, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDate([]string{"21.10.2026"}, time.UTC, now)
	assert.ErrorIs(t, err, errUsage)
}

func TestParseDateTime(t *testing.T) {
	got, err := parseDateTime([]string{"2026-10-19", "09:45"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 45, 0, 0, time.UTC), got)

	_, err = parseDateTime([]string{"2026-10-19"}, time.UTC)
	assert.ErrorIs(t, err, errUsage)

	_, err = parseDateTime([]string{"2026-10-19", "9am"}, time.UTC)
	assert.ErrorIs(t, err, errUsage)
}

func TestParseID(t *testing.T) {
	id := uuid.New()
	got, err := parseID([]string{id.String()})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = parseID(nil)
	assert.ErrorIs(t, err, errUsage)

	_, err = parseID([]string{"42"})
	assert.ErrorIs(t, err, errUsage)
}

func TestParseRuleInput(t *testing.T) {
	in, err := parseRuleInput([]string{"1", "09:00", "10:30", "45", "https://meet.example/a"})
	require.NoError(t, err)
	assert.Equal(t, 1, in.Weekday)
	assert.Equal(t, "09:00", in.StartTime)
	assert.Equal(t, "10:30", in.EndTime)
	assert.Equal(t, 45, in.SlotMinutes)
	require.NotNil(t, in.MeetingLink)
	assert.Equal(t, "https://meet.example/a", *in.MeetingLink)

	in, err = parseRuleInput([]string{"3", "14:00", "16:00", "60"})
	require.NoError(t, err)
	assert.Nil(t, in.MeetingLink)

	for _, args := range [][]string{
		{"1", "09:00", "10:00"},
		{"monday", "09:00", "10:00", "30"},
		{"1", "09:00", "10:00", "half-hour"},
	} {
		_, err := parseRuleInput(args)
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: id is required", errUsage), "Invalid command: id is required"},
		{fmt.Errorf("create booking: %w", model.ErrSlotConflict), "That slot is no longer available."},
		{model.ErrQuotaExceeded, "Session limit reached (101 completed sessions)."},
		{&model.TransitionError{From: model.BookingStatusCanceled, To: model.BookingStatusCompleted}, "This session can no longer be changed."},
		{model.ErrForbidden, "You are not allowed to do that."},
		{fmt.Errorf("get booking by id: %w", model.ErrNotFound), "Not found."},
		{fmt.Errorf("wrap: %w", model.NewValidationError("start_ts", "must be in the future")), "Invalid request: start_ts must be in the future"},
		{errors.New("connection refused"), "Something went wrong, please try again later."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorMessage(tt.err))
	}
}

func TestFormatSlots(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	empty := formatSlots(day, nil, time.UTC)
	assert.Contains(t, empty, "No available time slots")

	text := formatSlots(day, []model.Slot{
		{Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 45*time.Minute)},
	}, time.UTC)
	assert.Contains(t, text, "Monday, 19 Oct 2026")
	assert.Contains(t, text, "09:00 – 09:45")
	assert.Contains(t, text, "/book 2026-10-19 HH:MM")
}

func TestFormatBooking(t *testing.T) {
	link, notes := "https://meet.example/a", "bring homework"
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	b := &model.Booking{
		ID:          uuid.New(),
		StartTS:     start,
		EndTS:       start.Add(45 * time.Minute),
		Status:      model.BookingStatusBooked,
		MeetingLink: &link,
		Notes:       &notes,
	}

	text := formatBooking(b, time.UTC)
	assert.Contains(t, text, "[booked]")
	assert.Contains(t, text, b.ID.String())
	assert.Contains(t, text, "link: "+link)
	assert.Contains(t, text, "notes: "+notes)

	assert.Equal(t, "No sessions yet.", formatBookings(nil, time.UTC))
}

func TestFormatConversations(t *testing.T) {
	assert.Equal(t, "Inbox is empty.", formatConversations(nil, time.UTC))

	student := uuid.New()
	text := formatConversations([]model.Conversation{{
		StudentID:     student,
		StudentName:   "Alice",
		LastMessage:   "See you Monday",
		LastMessageAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		UnreadCount:   2,
	}}, time.UTC)
	assert.Contains(t, text, "Alice (2 unread)")
	assert.Contains(t, text, "/reply "+student.String())
}

func TestFormatRule(t *testing.T) {
	r := &model.AvailabilityRule{ID: uuid.New(), Weekday: 1, StartTime: 9 * 3600, EndTime: 10*3600 + 1800, SlotMinutes: 45}
	assert.Contains(t, formatRule(r), "Monday 09:00–10:30, 45 min")
	assert.Contains(t, formatRules(nil), "/addrule")
}

func TestWeekBlocks(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	week := []service.DaySlots{{Date: day, Slots: []model.Slot{{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)}}}}
	own := []*model.Booking{
		{StartTS: day.Add(11 * time.Hour), EndTS: day.Add(12 * time.Hour), Status: model.BookingStatusBooked},
		{StartTS: day.Add(13 * time.Hour), EndTS: day.Add(14 * time.Hour), Status: model.BookingStatusCompleted},
		{StartTS: day.Add(15 * time.Hour), EndTS: day.Add(16 * time.Hour), Status: model.BookingStatusNoShow},
	}

	blocks := weekBlocks(week, own)
	require.Len(t, blocks, 4)
	kinds := []render.BlockKind{blocks[0].Kind, blocks[1].Kind, blocks[2].Kind, blocks[3].Kind}
	assert.Equal(t, []render.BlockKind{render.BlockFree, render.BlockBooked, render.BlockCompleted, render.BlockMissed}, kinds)
	assert.Equal(t, "no_show", blocks[3].Label)
}

func TestPendingNotes(t *testing.T) {
	p := newPendingNotes()
	id := uuid.New()

	_, ok := p.Take(1)
	assert.False(t, ok)

	p.Set(1, id)
	got, ok := p.Take(1)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = p.Take(1)
	assert.False(t, ok, "take clears the dialog")

	p.Set(2, id)
	p.Clear(2)
	_, ok = p.Take(2)
	assert.False(t, ok)
}
