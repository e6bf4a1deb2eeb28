package feed

import (
	"context"
	"sync"
)

// Memory is an in-process feed. Slow subscribers lose events rather than block
// publishers, which is safe because every event only means "refetch".
type Memory struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*memorySub
}

type memorySub struct {
	filter Filter
	ch     chan Change
}

func NewMemory() *Memory {
	return &Memory{subs: map[int]*memorySub{}}
}

func (m *Memory) Publish(_ context.Context, change Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs {
		if !sub.filter.Matches(change) {
			continue
		}
		select {
		case sub.ch <- change:
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, filter Filter) (<-chan Change, error) {
	sub := &memorySub{filter: filter, ch: make(chan Change, 16)}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = sub
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, id)
		close(sub.ch)
		m.mu.Unlock()
	}()

	return sub.ch, nil
}
