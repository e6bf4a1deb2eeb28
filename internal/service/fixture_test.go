package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/feed"
	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Monday 19 October 2026, 08:00 UTC.
var testNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	feed     *feed.Memory
	bookings *BookingService
	quota    *QuotaTracker
	tutor    model.Tutor
	student  model.Student
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	ctx := context.Background()

	tutorProfile := &model.Profile{Name: "Tutor", Role: model.RoleTutor}
	require.NoError(t, store.Profiles.Create(ctx, tutorProfile))
	studentProfile := &model.Profile{Name: "Alice", Role: model.RoleStudent}
	require.NoError(t, store.Profiles.Create(ctx, studentProfile))

	changes := feed.NewMemory()
	quota := NewQuotaTracker(store.Bookings)
	svc := NewBookingService(store.Bookings, quota, changes, metrics.Nop{}, zap.NewNop(), 0)
	svc.now = func() time.Time { return testNow }

	return &fixture{
		store:    store,
		feed:     changes,
		bookings: svc,
		quota:    quota,
		tutor:    model.Tutor{ID: tutorProfile.ID},
		student:  model.Student{ID: studentProfile.ID},
	}
}

func (f *fixture) addStudent(t *testing.T, name string) model.Student {
	t.Helper()
	p := &model.Profile{Name: name, Role: model.RoleStudent}
	require.NoError(t, f.store.Profiles.Create(context.Background(), p))
	return model.Student{ID: p.ID}
}

// at returns testNow's day at hh:mm UTC.
func at(hour, minute int) time.Time {
	return time.Date(testNow.Year(), testNow.Month(), testNow.Day(), hour, minute, 0, 0, time.UTC)
}

// seedCompleted stores n completed bookings for student directly.
func (f *fixture) seedCompleted(t *testing.T, studentID uuid.UUID, n int) {
	t.Helper()
	past := testNow.AddDate(-1, 0, 0)
	for i := range n {
		start := past.Add(time.Duration(i) * time.Hour)
		require.NoError(t, f.store.Bookings.Create(context.Background(), &model.Booking{
			TutorID:   f.tutor.ID,
			StudentID: studentID,
			StartTS:   start,
			EndTS:     start.Add(time.Hour),
			Status:    model.BookingStatusCompleted,
		}))
	}
}

func mustTime(t *testing.T, s string) model.TimeOfDay {
	t.Helper()
	tod, err := model.ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}
