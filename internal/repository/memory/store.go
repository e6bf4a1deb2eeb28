// Package memory is an in-process implementation of the repository interfaces.
// Every write takes the store lock, so the uniqueness and quota constraints
// hold under concurrent callers exactly as the PostgreSQL index and trigger do.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/google/uuid"
)

var (
	_ repository.ProfileStore          = (*ProfileStore)(nil)
	_ repository.AvailabilityRuleStore = (*RuleStore)(nil)
	_ repository.BookingStore          = (*BookingStore)(nil)
	_ repository.MessageStore          = (*MessageStore)(nil)
)

// Store bundles the four stores.
type Store struct {
	Profiles *ProfileStore
	Rules    *RuleStore
	Bookings *BookingStore
	Messages *MessageStore
}

func New() *Store {
	return &Store{
		Profiles: &ProfileStore{byID: map[uuid.UUID]*model.Profile{}},
		Rules:    &RuleStore{byID: map[uuid.UUID]*model.AvailabilityRule{}},
		Bookings: &BookingStore{byID: map[uuid.UUID]*model.Booking{}},
		Messages: &MessageStore{byID: map[uuid.UUID]*entry[model.Message]{}},
	}
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, model.ErrNotFound)
}

// ProfileStore

type ProfileStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*model.Profile
	order []uuid.UUID
}

func (s *ProfileStore) Create(_ context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if profile.TelegramID != nil {
		for _, p := range s.byID {
			if p.TelegramID != nil && *p.TelegramID == *profile.TelegramID {
				return fmt.Errorf("create profile: telegram id %d already registered", *profile.TelegramID)
			}
		}
	}

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	if profile.Timezone == "" {
		profile.Timezone = "UTC"
	}
	now := time.Now().UTC()
	profile.CreatedAt, profile.UpdatedAt = now, now

	cp := *profile
	s.byID[cp.ID] = &cp
	s.order = append(s.order, cp.ID)
	return nil
}

func (s *ProfileStore) GetByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, notFound("get profile by id")
	}
	cp := *p
	return &cp, nil
}

func (s *ProfileStore) GetByTelegramID(_ context.Context, telegramID int64) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.byID {
		if p.TelegramID != nil && *p.TelegramID == telegramID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, notFound("get profile by telegram id")
}

func (s *ProfileStore) FindTutor(_ context.Context) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if p := s.byID[id]; p.IsTutor() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, notFound("find tutor")
}

func (s *ProfileStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Profile
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// RuleStore

type RuleStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*model.AvailabilityRule
}

func (s *RuleStore) Create(_ context.Context, rule *model.AvailabilityRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	now := time.Now().UTC()
	rule.CreatedAt, rule.UpdatedAt = now, now

	cp := *rule
	s.byID[cp.ID] = &cp
	return nil
}

func (s *RuleStore) GetByID(_ context.Context, id uuid.UUID) (*model.AvailabilityRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, notFound("get availability rule")
	}
	cp := *r
	return &cp, nil
}

func (s *RuleStore) Update(_ context.Context, rule *model.AvailabilityRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[rule.ID]
	if !ok {
		return notFound("update availability rule")
	}
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now().UTC()

	cp := *rule
	s.byID[cp.ID] = &cp
	return nil
}

func (s *RuleStore) Deactivate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return notFound("deactivate availability rule")
	}
	r.Active = false
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *RuleStore) ListActive(_ context.Context) ([]*model.AvailabilityRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.AvailabilityRule
	for _, r := range s.byID {
		if r.Active {
			cp := *r
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *model.AvailabilityRule) int {
		return cmp.Or(cmp.Compare(a.Weekday, b.Weekday), cmp.Compare(a.StartTime, b.StartTime))
	})
	return out, nil
}

// BookingStore

type BookingStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*model.Booking
}

func (s *BookingStore) completedLocked(studentID uuid.UUID) int {
	n := 0
	for _, b := range s.byID {
		if b.StudentID == studentID && b.Status == model.BookingStatusCompleted {
			n++
		}
	}
	return n
}

func (s *BookingStore) Create(_ context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.Status == model.BookingStatusBooked {
		for _, b := range s.byID {
			if b.IsBooked() && b.TutorID == booking.TutorID && b.StartTS.Equal(booking.StartTS) {
				return fmt.Errorf("create booking: %w", model.ErrSlotConflict)
			}
		}
		if s.completedLocked(booking.StudentID) >= model.MaxCompletedSessions {
			return fmt.Errorf("create booking: %w", model.ErrQuotaExceeded)
		}
	}

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.StartTS = booking.StartTS.UTC()
	booking.EndTS = booking.EndTS.UTC()
	now := time.Now().UTC()
	booking.CreatedAt, booking.UpdatedAt = now, now

	cp := *booking
	s.byID[cp.ID] = &cp
	return nil
}

func (s *BookingStore) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byID[id]
	if !ok {
		return nil, notFound("get booking by id")
	}
	cp := *b
	return &cp, nil
}

func (s *BookingStore) Find(_ context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Booking
	for _, b := range s.byID {
		if filter.Matches(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *model.Booking) int {
		return a.StartTS.Compare(b.StartTS)
	})
	return out, nil
}

func (s *BookingStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return nil, notFound("update booking status")
	}
	if b.Status != from {
		return nil, &model.TransitionError{From: b.Status, To: to}
	}
	if to == model.BookingStatusCompleted && s.completedLocked(b.StudentID) >= model.MaxCompletedSessions {
		return nil, fmt.Errorf("update booking status: %w", model.ErrQuotaExceeded)
	}

	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	cp := *b
	return &cp, nil
}

func (s *BookingStore) UpdateNotes(_ context.Context, id uuid.UUID, notes *string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return nil, notFound("update booking notes")
	}
	b.Notes = notes
	b.UpdatedAt = time.Now().UTC()
	cp := *b
	return &cp, nil
}

func (s *BookingStore) CompletedCount(_ context.Context, studentID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.completedLocked(studentID), nil
}

// MessageStore

type entry[T any] struct {
	seq   int
	value T
}

type MessageStore struct {
	mu   sync.RWMutex
	seq  int
	byID map[uuid.UUID]*entry[model.Message]
}

func (s *MessageStore) Create(_ context.Context, message *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	s.seq++
	s.byID[message.ID] = &entry[model.Message]{seq: s.seq, value: *message}
	return nil
}

func (s *MessageStore) GetByID(_ context.Context, id uuid.UUID) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return nil, notFound("get message")
	}
	cp := e.value
	return &cp, nil
}

func (s *MessageStore) collect(keep func(*model.Message) bool, newestFirst bool) []*model.Message {
	var entries []*entry[model.Message]
	for _, e := range s.byID {
		if keep(&e.value) {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b *entry[model.Message]) int {
		c := cmp.Or(a.value.CreatedAt.Compare(b.value.CreatedAt), cmp.Compare(a.seq, b.seq))
		if newestFirst {
			return -c
		}
		return c
	})

	out := make([]*model.Message, len(entries))
	for i, e := range entries {
		cp := e.value
		out[i] = &cp
	}
	return out
}

func (s *MessageStore) ListByTutor(_ context.Context, tutorID uuid.UUID) ([]*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(m *model.Message) bool { return m.TutorID == tutorID }, true), nil
}

func (s *MessageStore) ListThread(_ context.Context, studentID uuid.UUID) ([]*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(m *model.Message) bool { return m.StudentID == studentID }, false), nil
}

func (s *MessageStore) MarkRead(_ context.Context, id uuid.UUID, at time.Time) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return nil, notFound("mark message read")
	}
	readAt := at.UTC()
	e.value.ReadAt = &readAt
	cp := e.value
	return &cp, nil
}

func (s *MessageStore) MarkThreadRead(_ context.Context, tutorID, studentID, readerID uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	readAt := at.UTC()
	for _, e := range s.byID {
		m := &e.value
		if m.TutorID == tutorID && m.StudentID == studentID && m.SenderID != readerID && m.ReadAt == nil {
			m.ReadAt = &readAt
			n++
		}
	}
	return n, nil
}
