package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/sofia-scheduler/cmd/mainconfig"
	"github.com/wolfman30/sofia-scheduler/internal/api/router"
	"github.com/wolfman30/sofia-scheduler/internal/app/bootstrap"
	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/booking"
	"github.com/wolfman30/sofia-scheduler/internal/calendarbridge"
	"github.com/wolfman30/sofia-scheduler/internal/clinic"
	appconfig "github.com/wolfman30/sofia-scheduler/internal/config"
	"github.com/wolfman30/sofia-scheduler/internal/observability/metrics"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

func main() {
	cfg := mainconfig.LoadConfig()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting sofia-scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic_id", cfg.ClinicID,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsHandler, schedMetrics := setupMetrics()
	checks := map[string]router.HealthCheck{}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	var clinicStore *clinic.Store
	if redisClient != nil {
		defer redisClient.Close()
		clinicStore = clinic.NewStore(redisClient)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		return err
	}
	var repo appointments.Repository
	if pool != nil {
		defer pool.Close()
		repo = appointments.NewPostgresRepository(pool)
		checks["postgres"] = pool.Ping
	}

	schedule, err := bootstrap.LoadSchedule(ctx, cfg, clinicStore, logger)
	if err != nil {
		return err
	}

	var sqsQueue calendarbridge.Queue
	if cfg.BridgeEnabled() && !cfg.UseMemoryQueue {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		sqsQueue = calendarbridge.NewSQSQueue(mainconfig.NewSQSClient(awsCfg, cfg), cfg.MirrorQueueURL)
	}
	mirror, err := bootstrap.BuildMirror(cfg, sqsQueue, logger, schedMetrics)
	if err != nil {
		return err
	}

	engine, err := bootstrap.BuildEngine(cfg, bootstrap.EngineDeps{
		Schedule:  schedule,
		Repo:      repo,
		Redis:     redisClient,
		Publisher: mirror.Publisher,
		Logger:    logger,
		Metrics:   schedMetrics,
	})
	if err != nil {
		return err
	}

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	if mirror.Worker != nil {
		mirror.Worker.Start(workerCtx)
	}

	routerCfg := &router.Config{
		Logger:          logger,
		Tools:           booking.NewHandler(engine.Orchestrator, engine.Sessions, cfg.DefaultLocale, logger),
		Appointments:    appointments.NewHandler(engine.Store, logger),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  metricsHandler,
		Checks:          checks,
	}
	if clinicStore != nil {
		routerCfg.Clinic = clinic.NewHandler(clinicStore, logger)
	}
	if mirror.Client != nil {
		routerCfg.Breaker = mirror.Client.Breaker()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Let the in-process mirror drain what it already received.
	cancelWorker()
	if mirror.Worker != nil {
		mirror.Worker.Wait()
	}
	logger.Info("server stopped")
	return nil
}

func setupMetrics() (http.Handler, *metrics.SchedulingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewSchedulingMetrics(reg)
}
