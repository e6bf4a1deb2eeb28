package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const unknownStudentName = "Unknown"

// AggregateConversations groups the tutor's messages by student. Output order
// follows the first appearance of each student in messages; the body and
// timestamp are taken from the most recent message of the group.
func AggregateConversations(messages []*model.Message, names map[uuid.UUID]string) []model.Conversation {
	index := make(map[uuid.UUID]int)
	var out []model.Conversation

	for _, msg := range messages {
		i, seen := index[msg.StudentID]
		if !seen {
			name, ok := names[msg.StudentID]
			if !ok {
				name = unknownStudentName
			}
			i = len(out)
			index[msg.StudentID] = i
			out = append(out, model.Conversation{
				StudentID:     msg.StudentID,
				StudentName:   name,
				LastMessage:   msg.Body,
				LastMessageAt: msg.CreatedAt,
			})
		} else if msg.CreatedAt.After(out[i].LastMessageAt) {
			out[i].LastMessage = msg.Body
			out[i].LastMessageAt = msg.CreatedAt
		}

		if msg.IsUnreadFromStudent() {
			out[i].UnreadCount++
		}
	}

	return out
}

// InboxView caches the tutor's conversations. Invalidate marks it stale; the
// next read recomputes from a full query. Changes are never patched in.
type InboxView struct {
	tutorID  uuid.UUID
	messages repository.MessageStore
	profiles repository.ProfileStore
	metrics  metrics.Recorder
	logger   *zap.Logger

	group singleflight.Group

	mu         sync.Mutex
	generation uint64
	fresh      uint64 // generation the cache was built from, 0 = never
	cached     []model.Conversation
}

func NewInboxView(
	tutorID uuid.UUID,
	messages repository.MessageStore,
	profiles repository.ProfileStore,
	recorder metrics.Recorder,
	logger *zap.Logger,
) *InboxView {
	return &InboxView{
		tutorID:    tutorID,
		messages:   messages,
		profiles:   profiles,
		metrics:    recorder,
		logger:     logger,
		generation: 1,
	}
}

// Invalidate marks the cached conversations stale.
func (v *InboxView) Invalidate() {
	v.mu.Lock()
	v.generation++
	v.mu.Unlock()
}

// Conversations returns the inbox, recomputing it if it is stale.
func (v *InboxView) Conversations(ctx context.Context) ([]model.Conversation, error) {
	v.mu.Lock()
	if v.fresh == v.generation {
		out := append([]model.Conversation(nil), v.cached...)
		v.mu.Unlock()
		return out, nil
	}
	v.mu.Unlock()

	res, err, _ := v.group.Do("inbox", func() (any, error) {
		return v.recompute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]model.Conversation(nil), res.([]model.Conversation)...), nil
}

func (v *InboxView) recompute(ctx context.Context) ([]model.Conversation, error) {
	started := time.Now()

	v.mu.Lock()
	gen := v.generation
	v.mu.Unlock()

	messages, err := v.messages.ListByTutor(ctx, v.tutorID)
	if err != nil {
		return nil, fmt.Errorf("load inbox messages: %w", err)
	}

	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, m := range messages {
		if !seen[m.StudentID] {
			seen[m.StudentID] = true
			ids = append(ids, m.StudentID)
		}
	}

	profiles, err := v.profiles.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load inbox profiles: %w", err)
	}
	names := make(map[uuid.UUID]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Name
	}

	conversations := AggregateConversations(messages, names)

	v.mu.Lock()
	// An Invalidate that raced with the query keeps the view stale.
	if gen == v.generation {
		v.fresh = gen
	}
	v.cached = conversations
	v.mu.Unlock()

	v.metrics.RecordInboxRecompute(time.Since(started))
	v.logger.Debug("Inbox recomputed",
		zap.Int("messages", len(messages)),
		zap.Int("conversations", len(conversations)),
	)

	return conversations, nil
}
