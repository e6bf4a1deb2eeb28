package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaTracker(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		completed int
		canBook   bool
		remaining int
	}{
		{completed: 0, canBook: true, remaining: model.MaxCompletedSessions},
		{completed: 100, canBook: true, remaining: 1},
		{completed: 101, canBook: false, remaining: 0},
	}

	for _, tt := range tests {
		f := newFixture(t)
		f.seedCompleted(t, f.student.ID, tt.completed)

		count, err := f.quota.CompletedCount(ctx, f.student.ID)
		require.NoError(t, err)
		assert.Equal(t, tt.completed, count)

		ok, err := f.quota.CanBookMore(ctx, f.student.ID)
		require.NoError(t, err)
		assert.Equal(t, tt.canBook, ok, "completed=%d", tt.completed)

		remaining, err := f.quota.Remaining(ctx, f.student.ID)
		require.NoError(t, err)
		assert.Equal(t, tt.remaining, remaining)
	}
}

func TestQuotaIgnoresOtherStatuses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sb := f.bookings.ForStudent(f.student)
	b, err := sb.Create(ctx, f.tutor.ID, at(9, 0), at(9, 45), nil)
	require.NoError(t, err)
	_, err = f.bookings.ForTutor(f.tutor).MarkNoShow(ctx, b.ID)
	require.NoError(t, err)
	_, err = sb.Create(ctx, f.tutor.ID, at(10, 0), at(10, 45), nil)
	require.NoError(t, err)

	count, err := f.quota.CompletedCount(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
