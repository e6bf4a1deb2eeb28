package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	tg := int64(42)

	student := &model.Profile{Name: "Alice", Role: model.RoleStudent, TelegramID: &tg}
	require.NoError(t, s.Profiles.Create(ctx, student))
	assert.NotEqual(t, uuid.Nil, student.ID)
	assert.Equal(t, "UTC", student.Timezone)

	assert.Error(t, s.Profiles.Create(ctx, &model.Profile{Name: "dup", TelegramID: &tg}))

	got, err := s.Profiles.GetByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, student.ID, got.ID)

	_, err = s.Profiles.FindTutor(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)

	tutor := &model.Profile{Name: "Tutor", Role: model.RoleTutor}
	require.NoError(t, s.Profiles.Create(ctx, tutor))
	found, err := s.Profiles.FindTutor(ctx)
	require.NoError(t, err)
	assert.Equal(t, tutor.ID, found.ID)

	list, err := s.Profiles.ListByIDs(ctx, []uuid.UUID{student.ID, uuid.New(), tutor.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.Profiles.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBookingStoreConstraints(t *testing.T) {
	ctx := context.Background()
	s := New()
	tutor, student := uuid.New(), uuid.New()
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	booked := func(studentID uuid.UUID) *model.Booking {
		return &model.Booking{TutorID: tutor, StudentID: studentID, StartTS: start, EndTS: start.Add(time.Hour), Status: model.BookingStatusBooked}
	}

	first := booked(student)
	require.NoError(t, s.Bookings.Create(ctx, first))
	assert.ErrorIs(t, s.Bookings.Create(ctx, booked(uuid.New())), model.ErrSlotConflict)

	_, err := s.Bookings.UpdateStatus(ctx, first.ID, model.BookingStatusBooked, model.BookingStatusCanceled)
	require.NoError(t, err)
	require.NoError(t, s.Bookings.Create(ctx, booked(uuid.New())), "canceled booking frees the slot")

	_, err = s.Bookings.UpdateStatus(ctx, first.ID, model.BookingStatusBooked, model.BookingStatusCompleted)
	var terr *model.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, model.BookingStatusCanceled, terr.From)

	_, err = s.Bookings.UpdateStatus(ctx, uuid.New(), model.BookingStatusBooked, model.BookingStatusCanceled)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBookingStoreQuota(t *testing.T) {
	ctx := context.Background()
	s := New()
	tutor, student := uuid.New(), uuid.New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range model.MaxCompletedSessions {
		start := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.Bookings.Create(ctx, &model.Booking{
			TutorID: tutor, StudentID: student, StartTS: start, EndTS: start.Add(time.Hour), Status: model.BookingStatusCompleted,
		}))
	}

	count, err := s.Bookings.CompletedCount(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, model.MaxCompletedSessions, count)

	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	err = s.Bookings.Create(ctx, &model.Booking{TutorID: tutor, StudentID: student, StartTS: start, EndTS: start.Add(time.Hour), Status: model.BookingStatusBooked})
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
}

func TestBookingStoreFind(t *testing.T) {
	ctx := context.Background()
	s := New()
	tutor := uuid.New()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	for _, h := range []int{15, 9, 12} {
		start := day.Add(time.Duration(h) * time.Hour)
		require.NoError(t, s.Bookings.Create(ctx, &model.Booking{
			TutorID: tutor, StudentID: uuid.New(), StartTS: start, EndTS: start.Add(time.Hour), Status: model.BookingStatusBooked,
		}))
	}

	from, to := day.Add(10*time.Hour), day.Add(15*time.Hour)
	got, err := s.Bookings.Find(ctx, model.BookingFilter{TutorID: &tutor, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 12, got[0].StartTS.Hour())

	all, err := s.Bookings.Find(ctx, model.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].StartTS.Before(all[1].StartTS))
	assert.True(t, all[1].StartTS.Before(all[2].StartTS))
}

func TestRuleStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	monday := &model.AvailabilityRule{Weekday: 1, StartTime: 9 * 3600, EndTime: 10 * 3600, SlotMinutes: 30, Active: true}
	sunday := &model.AvailabilityRule{Weekday: 0, StartTime: 9 * 3600, EndTime: 10 * 3600, SlotMinutes: 30, Active: true}
	require.NoError(t, s.Rules.Create(ctx, monday))
	require.NoError(t, s.Rules.Create(ctx, sunday))

	active, err := s.Rules.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, sunday.ID, active[0].ID)

	require.NoError(t, s.Rules.Deactivate(ctx, sunday.ID))
	active, err = s.Rules.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	stored, err := s.Rules.GetByID(ctx, sunday.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active, "rules are retired, not removed")

	assert.ErrorIs(t, s.Rules.Update(ctx, &model.AvailabilityRule{ID: uuid.New()}), model.ErrNotFound)
}

func TestMessageStoreOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()
	tutor, student := uuid.New(), uuid.New()
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	for _, body := range []string{"a", "b", "c"} {
		require.NoError(t, s.Messages.Create(ctx, &model.Message{
			TutorID: tutor, StudentID: student, SenderID: student, Body: body, CreatedAt: at,
		}))
	}

	newest, err := s.Messages.ListByTutor(ctx, tutor)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, bodies(newest))

	thread, err := s.Messages.ListThread(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, bodies(thread))

	n, err := s.Messages.MarkThreadRead(ctx, tutor, student, tutor, at)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.Messages.MarkThreadRead(ctx, tutor, student, student, at)
	require.NoError(t, err)
	assert.Zero(t, n, "reader's own messages are skipped")
}

func bodies(messages []*model.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Body
	}
	return out
}
