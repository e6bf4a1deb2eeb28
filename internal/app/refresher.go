package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/feed"
	"go.uber.org/zap"
)

// Invalidator is a derived view that can be marked stale.
type Invalidator interface {
	Invalidate()
}

const (
	resubscribeMin = time.Second
	resubscribeMax = time.Minute
)

// Refresher marks views stale when the change feed reports a write to the
// table they are derived from, and on a fixed interval as a fallback for
// missed notifications. A closed feed is resubscribed with exponential
// backoff while the interval keeps running.
type Refresher struct {
	subscriber feed.Subscriber
	filter     feed.Filter
	view       Invalidator
	interval   time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration
	logger     *zap.Logger
}

func NewRefresher(subscriber feed.Subscriber, filter feed.Filter, view Invalidator, interval time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		subscriber: subscriber,
		filter:     filter,
		view:       view,
		interval:   interval,
		minBackoff: resubscribeMin,
		maxBackoff: resubscribeMax,
		logger:     logger,
	}
}

// Run blocks until ctx is done. Only the first subscription error is returned.
func (r *Refresher) Run(ctx context.Context) error {
	changes, err := r.subscriber.Subscribe(ctx, r.filter)
	if err != nil {
		return err
	}

	r.logger.Info("View refresher started",
		zap.String("table", r.filter.Table),
		zap.Duration("interval", r.interval),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var retry *time.Timer
	var retryC <-chan time.Time
	defer func() {
		if retry != nil {
			retry.Stop()
		}
	}()
	backoff := r.minBackoff

	scheduleRetry := func() {
		retry = time.NewTimer(backoff)
		retryC = retry.C
		backoff = min(backoff*2, r.maxBackoff)
	}

	for {
		select {
		case change, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					r.logger.Info("View refresher stopped")
					return ctx.Err()
				}
				r.logger.Warn("Change feed closed, resubscribing", zap.Duration("backoff", backoff))
				changes = nil
				// Changes may have been lost with the subscription.
				r.view.Invalidate()
				scheduleRetry()
				continue
			}
			backoff = r.minBackoff
			r.logger.Debug("Change received",
				zap.String("table", change.Table),
				zap.String("student_id", change.StudentID.String()),
			)
			r.view.Invalidate()
		case <-retryC:
			retryC = nil
			changes, err = r.subscriber.Subscribe(ctx, r.filter)
			if err != nil {
				r.logger.Warn("Failed to resubscribe to change feed",
					zap.Duration("backoff", backoff),
					zap.Error(err),
				)
				changes = nil
				scheduleRetry()
				continue
			}
			r.logger.Info("Change feed resubscribed", zap.String("table", r.filter.Table))
			r.view.Invalidate()
		case <-ticker.C:
			r.view.Invalidate()
		case <-ctx.Done():
			r.logger.Info("View refresher stopped")
			return ctx.Err()
		}
	}
}
