package feed

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis publishes changes over Redis pub/sub.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedis(client *redis.Client, logger *zap.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

func (r *Redis) Publish(ctx context.Context, change Change) error {
	data, err := encode(change)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, Channel, data).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, filter Filter) (<-chan Change, error) {
	pubsub := r.client.Subscribe(ctx, Channel)
	// Receive blocks until the subscription is confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				change, err := decode(msg.Payload)
				if err != nil {
					r.logger.Warn("Dropping malformed change", zap.Error(err))
					continue
				}
				if !filter.Matches(change) {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
