package calendarbridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/observability/metrics"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

// AppointmentCreator is the part of Client the worker needs.
type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, req AppointmentRequest) (*AppointmentResponse, error)
}

// Worker consumes mirror jobs and pushes them to the calendar. Failed jobs
// are logged and dropped; the local store stays authoritative.
type Worker struct {
	queue   Queue
	creator AppointmentCreator
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

const (
	defaultWorkerCount   = 1
	defaultWaitSeconds   = 2
	defaultBatchSize     = 5
	maxWaitSeconds       = 20
	maxReceiveBatchSize  = 10
	deleteTimeoutSeconds = 5
)

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// NewWorker creates a mirror worker.
func NewWorker(queue Queue, creator AppointmentCreator, logger *logging.Logger, m *metrics.SchedulingMetrics, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("calendarbridge: queue cannot be nil")
	}
	if creator == nil {
		panic("calendarbridge: appointment creator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{
		queue:   queue,
		creator: creator,
		logger:  logger.WithComponent("mirror-worker"),
		metrics: m,
		cfg:     cfg,
	}
}

// Start launches the consumer goroutines. They stop when ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Run starts the worker and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	w.Start(ctx)
	w.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("mirror worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("mirror worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to receive mirror jobs", "error", err, "worker_id", workerID)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg Message) {
	defer w.deleteMessage(context.Background(), msg.ReceiptHandle)

	var job MirrorJob
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		w.logger.Error("failed to decode mirror job", "error", err, "msg_id", msg.ID)
		w.metrics.ObserveMirrorJob("malformed")
		return
	}

	resp, err := w.creator.CreateAppointment(ctx, job.Request)
	if err != nil {
		w.logger.Warn("calendar mirror failed",
			"job_id", job.ID,
			"appointment_id", job.AppointmentID,
			"kind", appointments.KindOf(err),
			"error", err,
		)
		w.metrics.ObserveMirrorJob("failed")
		return
	}

	attrs := []any{"job_id", job.ID, "appointment_id", job.AppointmentID}
	if resp != nil && resp.Appointment != nil {
		attrs = append(attrs, "calendar_id", resp.Appointment.ID)
	}
	w.logger.Info("appointment mirrored to calendar", attrs...)
	w.metrics.ObserveMirrorJob("mirrored")
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}
	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeoutSeconds*time.Second)
	defer cancel()
	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete mirror job", "error", err)
	}
}
