package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMatches(t *testing.T) {
	tutor, student := uuid.New(), uuid.New()
	c := Change{Table: TableMessages, TutorID: tutor, StudentID: student}

	assert.True(t, Filter{}.Matches(c))
	assert.True(t, Filter{Table: TableMessages, TutorID: tutor}.Matches(c))
	assert.False(t, Filter{Table: TableBookings}.Matches(c))
	assert.False(t, Filter{StudentID: uuid.New()}.Matches(c))
}

func TestDecodeTriggerPayload(t *testing.T) {
	tutor, student := uuid.New(), uuid.New()
	payload := `{"table":"bookings","tutor_id":"` + tutor.String() + `","student_id":"` + student.String() + `"}`

	c, err := decode(payload)
	require.NoError(t, err)
	assert.Equal(t, Change{Table: TableBookings, TutorID: tutor, StudentID: student}, c)

	data, err := encode(c)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(data))

	_, err = decode("not json")
	assert.Error(t, err)
}

func TestMemoryFanout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	messages, err := m.Subscribe(ctx, Filter{Table: TableMessages})
	require.NoError(t, err)
	all, err := m.Subscribe(ctx, Filter{})
	require.NoError(t, err)

	require.NoError(t, m.Publish(ctx, Change{Table: TableBookings}))
	require.NoError(t, m.Publish(ctx, Change{Table: TableMessages}))

	assert.Equal(t, TableMessages, receive(t, messages).Table)
	assert.Equal(t, TableBookings, receive(t, all).Table)
	assert.Equal(t, TableMessages, receive(t, all).Table)
}

func TestMemoryDropsWhenSubscriberIsSlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMemory()
	ch, err := m.Subscribe(ctx, Filter{})
	require.NoError(t, err)

	for range 100 {
		require.NoError(t, m.Publish(ctx, Change{Table: TableBookings}))
	}
	assert.Equal(t, cap(ch), len(ch))
}

func TestMemoryClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewMemory()
	ch, err := m.Subscribe(ctx, Filter{})
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}

	assert.NoError(t, m.Publish(context.Background(), Change{}), "publish after unsubscribe")
}

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("no change received")
		return Change{}
	}
}
