// Package bootstrap assembles the scheduling engine from configuration so
// cmd binaries stay thin.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/booking"
	"github.com/wolfman30/sofia-scheduler/internal/calendarbridge"
	"github.com/wolfman30/sofia-scheduler/internal/clinic"
	appconfig "github.com/wolfman30/sofia-scheduler/internal/config"
	"github.com/wolfman30/sofia-scheduler/internal/observability/metrics"
	"github.com/wolfman30/sofia-scheduler/internal/resolver"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL, or returns nil when unset.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// LoadSchedule reads the clinic schedule once at startup. Without Redis, or
// when nothing is stored, the default practice hours apply in the configured
// timezone. A stored schedule keeps its own timezone unless it names none.
func LoadSchedule(ctx context.Context, cfg *appconfig.Config, store *clinic.Store, logger *logging.Logger) (*clinic.Schedule, error) {
	if logger == nil {
		logger = logging.Default()
	}
	clinicID := "default"
	timezone := clinic.DefaultTimezone
	if cfg != nil {
		if strings.TrimSpace(cfg.ClinicID) != "" {
			clinicID = cfg.ClinicID
		}
		if strings.TrimSpace(cfg.ClinicTimezone) != "" {
			timezone = cfg.ClinicTimezone
		}
	}

	schedule, found := clinic.DefaultSchedule(clinicID), false
	if store != nil {
		loaded, ok, err := store.Lookup(ctx, clinicID)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load schedule: %w", err)
		}
		if ok {
			schedule, found = loaded, true
		}
	}
	if !found || strings.TrimSpace(schedule.Timezone) == "" {
		schedule.Timezone = timezone
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: invalid schedule for %s: %w", clinicID, err)
	}
	logger.Info("clinic schedule loaded", "clinic_id", clinicID, "timezone", schedule.Timezone, "closures", len(schedule.Closures))
	return schedule, nil
}

// Mirror bundles the booking publisher with the in-process consumer, if any.
type Mirror struct {
	Publisher booking.Publisher
	// Worker is set only for the in-memory queue; SQS jobs are consumed by
	// cmd/mirror-worker.
	Worker *calendarbridge.Worker
	Client *calendarbridge.Client
}

// BuildCalendarClient builds the bridge client from config.
func BuildCalendarClient(cfg *appconfig.Config, logger *logging.Logger, m *metrics.SchedulingMetrics) (*calendarbridge.Client, error) {
	return calendarbridge.New(calendarbridge.Config{
		BaseURL:          cfg.CalendarBridgeURL,
		Timeout:          cfg.CalendarBridgeTimeout,
		MaxAttempts:      cfg.CalendarBridgeMaxAttempts,
		Backoff:          cfg.CalendarBridgeBackoff,
		MaxBackoff:       cfg.CalendarBridgeMaxBackoff,
		FailureThreshold: cfg.BreakerFailureThreshold,
		RecoveryTimeout:  cfg.BreakerRecoveryTimeout,
		Logger:           logger,
		Metrics:          m,
	})
}

// BuildMirror wires calendar mirroring. It returns a zero Mirror when no
// bridge URL is configured.
func BuildMirror(cfg *appconfig.Config, sqsQueue calendarbridge.Queue, logger *logging.Logger, m *metrics.SchedulingMetrics) (Mirror, error) {
	if !cfg.BridgeEnabled() {
		return Mirror{}, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	client, err := BuildCalendarClient(cfg, logger, m)
	if err != nil {
		return Mirror{}, err
	}
	locale := resolver.NormalizeLocale(cfg.DefaultLocale)

	if cfg.UseMemoryQueue {
		queue := calendarbridge.NewMemoryQueue(0)
		logger.Info("calendar mirror enabled", "queue", "memory")
		return Mirror{
			Publisher: calendarbridge.NewMirror(queue, locale, logger),
			Worker:    calendarbridge.NewWorker(queue, client, logger, m),
			Client:    client,
		}, nil
	}
	if sqsQueue == nil {
		return Mirror{}, errors.New("bootstrap: MIRROR_QUEUE_URL queue required when USE_MEMORY_QUEUE=false")
	}
	logger.Info("calendar mirror enabled", "queue", "sqs")
	return Mirror{
		Publisher: calendarbridge.NewMirror(sqsQueue, locale, logger),
		Client:    client,
	}, nil
}

// Engine is the assembled scheduling core.
type Engine struct {
	Schedule     *clinic.Schedule
	Store        *appointments.Store
	Finder       *appointments.Finder
	Orchestrator *booking.Orchestrator
	Sessions     booking.SessionStore
}

// EngineDeps are the already-built collaborators of the engine.
type EngineDeps struct {
	Schedule  *clinic.Schedule
	Repo      appointments.Repository
	Redis     *redis.Client
	Publisher booking.Publisher
	Logger    *logging.Logger
	Metrics   *metrics.SchedulingMetrics
}

// BuildEngine assembles checker, store, finder and orchestrator. A nil repo
// falls back to the in-memory book; a nil Redis client to in-memory sessions.
func BuildEngine(cfg *appconfig.Config, deps EngineDeps) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if deps.Schedule == nil {
		return nil, errors.New("bootstrap: schedule is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	repo := deps.Repo
	if repo == nil {
		logger.Warn("no DATABASE_URL configured; appointments are kept in memory")
		repo = appointments.NewInMemoryRepository()
	}

	checker := appointments.NewChecker(deps.Schedule, repo, appointments.WithCheckerMetrics(deps.Metrics))
	store := appointments.NewStore(repo, checker, logger, deps.Metrics)
	finder := appointments.NewFinder(checker, cfg.SearchHorizonDays)

	opts := []booking.OrchestratorOption{booking.WithLogger(logger)}
	if deps.Publisher != nil {
		opts = append(opts, booking.WithMirror(deps.Publisher))
	}

	var sessions booking.SessionStore
	if deps.Redis != nil {
		sessions = booking.NewRedisSessionStore(deps.Redis, cfg.SessionTTL)
	} else {
		sessions = booking.NewMemorySessionStore(cfg.SessionTTL)
	}

	return &Engine{
		Schedule:     deps.Schedule,
		Store:        store,
		Finder:       finder,
		Orchestrator: booking.NewOrchestrator(store, finder, opts...),
		Sessions:     sessions,
	}, nil
}
