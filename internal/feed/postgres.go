package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Postgres listens to the notifications emitted by the row change triggers.
// Publish is a no-op: the triggers notify on every committed write.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

func (p *Postgres) Publish(context.Context, Change) error { return nil }

func (p *Postgres) Subscribe(ctx context.Context, filter Filter) (<-chan Change, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", Channel, err)
	}

	// LISTEN is session state, so the connection must not go back to the pool.
	listener := conn.Hijack()

	out := make(chan Change)
	go func() {
		defer close(out)
		defer listener.Close(context.Background())

		for {
			n, err := listener.WaitForNotification(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					p.logger.Error("Notification wait failed", zap.Error(err))
				}
				return
			}
			change, err := decode(n.Payload)
			if err != nil {
				p.logger.Warn("Dropping malformed notification", zap.Error(err))
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
	}()

	return out, nil
}
