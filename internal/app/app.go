package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/config"
	"github.com/Freeeeeet/tutor_booking/internal/controller"
	"github.com/Freeeeeet/tutor_booking/internal/feed"
	"github.com/Freeeeeet/tutor_booking/internal/metrics"
	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/Freeeeeet/tutor_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// App owns every long-running component of the service
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	pool  *pgxpool.Pool
	redis *redis.Client

	http      *http.Server
	refresher *Refresher
	bot       *controller.BotController
}

// New connects to storage, applies migrations and wires the services
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, pool: pool}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	migrator, err := NewMigrator(a.pool, a.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		return err
	}

	changes, err := a.newFeed(ctx)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	profiles := repository.NewProfileRepository(a.pool)
	rules := repository.NewAvailabilityRuleRepository(a.pool, a.logger)
	bookings := repository.NewBookingRepository(a.pool)
	messages := repository.NewMessageRepository(a.pool)

	users := service.NewUserService(profiles, a.logger)
	quota := service.NewQuotaTracker(bookings)
	availability := service.NewAvailabilityService(rules, bookings, service.NewSlotGenerator(a.cfg.TutorTimezone), a.logger)
	bookingService := service.NewBookingService(bookings, quota, changes, recorder, a.logger, a.cfg.CancelCutoff)
	messageService := service.NewMessageService(messages, profiles, changes, a.logger)

	if a.cfg.TutorTelegramID != 0 {
		if _, err := users.EnsureTutor(ctx, a.cfg.TutorTelegramID, "Tutor"); err != nil {
			return fmt.Errorf("ensure tutor: %w", err)
		}
	}

	var inbox *service.InboxView
	tutor, err := users.Tutor(ctx)
	switch {
	case err == nil:
		inbox = service.NewInboxView(tutor.ID, messages, profiles, recorder, a.logger)
		a.refresher = NewRefresher(changes, feed.Filter{Table: feed.TableMessages, TutorID: tutor.ID}, inbox, a.cfg.InboxRefreshInterval, a.logger)
	case errors.Is(err, model.ErrNotFound):
		a.logger.Warn("No tutor profile yet, inbox disabled")
	default:
		return fmt.Errorf("load tutor: %w", err)
	}

	a.http = &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           NewRouter(a.pool, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if !a.cfg.BotEnabled() {
		a.logger.Warn("TELEGRAM_TOKEN not set, bot disabled")
		return nil
	}

	handlers := controller.NewHandlers(users, availability, bookingService, quota, messageService, inbox, a.cfg.TutorTimezone, a.logger)
	b, err := bot.New(a.cfg.TelegramToken, bot.WithDefaultHandler(handlers.HandleText))
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	a.bot = controller.NewBotController(b, handlers, a.logger)
	return a.bot.RegisterHandlers(ctx)
}

func (a *App) newFeed(ctx context.Context) (feed.Feed, error) {
	switch a.cfg.FeedBackend {
	case config.FeedRedis:
		a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return feed.NewRedis(a.redis, a.logger), nil
	case config.FeedMemory:
		return feed.NewMemory(), nil
	default:
		return feed.NewPostgres(a.pool, a.logger), nil
	}
}

// Run blocks until ctx is canceled or a component fails
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP listener started", zap.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.http.Shutdown(shutdownCtx)
	})

	if a.refresher != nil {
		g.Go(func() error {
			return ignoreCanceled(a.refresher.Run(ctx))
		})
	}
	if a.bot != nil {
		g.Go(func() error {
			return a.bot.Start(ctx)
		})
	}

	return g.Wait()
}

// Close releases storage connections
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	a.pool.Close()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
