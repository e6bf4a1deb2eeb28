package model

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 9 * 3600},
		{in: "10:30:15", want: 10*3600 + 30*60 + 15},
		{in: "00:00:00", want: 0},
		{in: "23:59:59", want: secondsPerDay - 1},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayOn(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	tod, err := NewTimeOfDay(9, 45, 0)
	require.NoError(t, err)

	day := time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)
	got := tod.On(day, loc)

	assert.Equal(t, time.Date(2026, 10, 19, 9, 45, 0, 0, loc), got)
	assert.Equal(t, "09:45:00", tod.String())
	assert.Equal(t, 9*time.Hour+45*time.Minute, tod.Duration())
}

func TestAvailabilityRuleValidate(t *testing.T) {
	valid := AvailabilityRule{Weekday: 1, StartTime: 9 * 3600, EndTime: 10 * 3600, SlotMinutes: 30}
	assert.NoError(t, valid.Validate())

	tests := map[string]func(r *AvailabilityRule){
		"weekday":       func(r *AvailabilityRule) { r.Weekday = 7 },
		"empty window":  func(r *AvailabilityRule) { r.EndTime = r.StartTime },
		"reversed":      func(r *AvailabilityRule) { r.StartTime, r.EndTime = r.EndTime, r.StartTime },
		"slot minutes":  func(r *AvailabilityRule) { r.SlotMinutes = 0 },
		"out of bounds": func(r *AvailabilityRule) { r.EndTime = secondsPerDay },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			r := valid
			mutate(&r)
			err := r.Validate()
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRulePatchApply(t *testing.T) {
	link := "https://meet.example/a"
	rule := AvailabilityRule{Weekday: 1, StartTime: 9 * 3600, EndTime: 10 * 3600, SlotMinutes: 30, Active: true}

	slot := 45
	inactive := false
	got := RulePatch{SlotMinutes: &slot, MeetingLink: &link, Active: &inactive}.Apply(rule)

	assert.Equal(t, 45, got.SlotMinutes)
	assert.Equal(t, link, *got.MeetingLink)
	assert.False(t, got.Active)
	assert.Equal(t, rule.StartTime, got.StartTime)
	assert.True(t, rule.Active, "original is not modified")
}
