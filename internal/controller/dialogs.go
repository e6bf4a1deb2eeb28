package controller

import (
	"sync"

	"github.com/google/uuid"
)

// pendingNotes remembers which booking a tutor is writing notes for,
// keyed by telegram id.
type pendingNotes struct {
	mu    sync.Mutex
	items map[int64]uuid.UUID
}

func newPendingNotes() *pendingNotes {
	return &pendingNotes{items: make(map[int64]uuid.UUID)}
}

func (p *pendingNotes) Set(telegramID int64, bookingID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[telegramID] = bookingID
}

// Take returns and clears the pending booking
func (p *pendingNotes) Take(telegramID int64) (uuid.UUID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.items[telegramID]
	delete(p.items, telegramID)
	return id, ok
}

func (p *pendingNotes) Clear(telegramID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.items, telegramID)
}
