package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/sofia-scheduler/cmd/mainconfig"
	"github.com/wolfman30/sofia-scheduler/internal/app/bootstrap"
	"github.com/wolfman30/sofia-scheduler/internal/calendarbridge"
	"github.com/wolfman30/sofia-scheduler/internal/observability/metrics"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

func main() {
	cfg := mainconfig.LoadConfig()
	logger := logging.New(cfg.LogLevel)

	if !cfg.BridgeEnabled() {
		logger.Error("CALENDAR_BRIDGE_URL is required")
		os.Exit(1)
	}
	if cfg.MirrorQueueURL == "" {
		logger.Error("MIRROR_QUEUE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	queue := calendarbridge.NewSQSQueue(mainconfig.NewSQSClient(awsCfg, cfg), cfg.MirrorQueueURL)

	reg := prometheus.NewRegistry()
	schedMetrics := metrics.NewSchedulingMetrics(reg)
	client, err := bootstrap.BuildCalendarClient(cfg, logger, schedMetrics)
	if err != nil {
		logger.Error("failed to create calendar client", "error", err)
		os.Exit(1)
	}

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	worker := calendarbridge.NewWorker(queue, client, logger, schedMetrics,
		calendarbridge.WithWorkerCount(2),
		calendarbridge.WithReceiveWaitSeconds(20),
		calendarbridge.WithReceiveBatchSize(10),
	)
	logger.Info("mirror worker running", "queue_url", cfg.MirrorQueueURL, "calendar", cfg.CalendarBridgeURL)
	worker.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	logger.Info("mirror worker stopped")
}
