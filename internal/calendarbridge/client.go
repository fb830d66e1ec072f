// Package calendarbridge talks to the external calendar web service that
// mirrors bookings for the practice staff. The calendar is never
// authoritative; every failure surfaces as BRIDGE_UNAVAILABLE.
package calendarbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/observability/metrics"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

var bridgeTracer = otel.Tracer("sofia.internal.calendarbridge")

const (
	defaultBaseURL     = "http://localhost:3005"
	defaultUserAgent   = "sofia-scheduler/calendar-bridge"
	defaultTimeout     = 5 * time.Second
	defaultMaxAttempts = 3
	defaultBackoff     = 2 * time.Second
	defaultMaxBackoff  = 10 * time.Second
)

// Config controls how the bridge client behaves.
type Config struct {
	BaseURL string
	// Timeout bounds each attempt, not the whole retried call.
	Timeout          time.Duration
	MaxAttempts      int
	Backoff          time.Duration
	MaxBackoff       time.Duration
	FailureThreshold int
	RecoveryTimeout  time.Duration
	HTTPClient       *http.Client
	Logger           *logging.Logger
	Metrics          *metrics.SchedulingMetrics
}

// Client calls the calendar service with retries behind a circuit breaker.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	breaker     *CircuitBreaker
	logger      *logging.Logger
	metrics     *metrics.SchedulingMetrics
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("calendarbridge: invalid base url %q: %w", cfg.BaseURL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.WithComponent("calendarbridge")
	return &Client{
		baseURL:     baseURL,
		httpClient:  httpClient,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		maxBackoff:  maxBackoff,
		breaker:     NewCircuitBreaker(cfg.FailureThreshold, cfg.RecoveryTimeout, logger, cfg.Metrics),
		logger:      logger,
		metrics:     cfg.Metrics,
	}, nil
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

// Health calls GET /health once, without retries.
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("calendarbridge: build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveBridgeRequest("health", "error", time.Since(start).Seconds())
		return unavailable(fmt.Errorf("health check: %w", err))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.metrics.ObserveBridgeRequest("health", "error", time.Since(start).Seconds())
		return unavailable(fmt.Errorf("health check: status %d", resp.StatusCode))
	}
	c.metrics.ObserveBridgeRequest("health", "ok", time.Since(start).Seconds())
	return nil
}

// NextAvailable asks the calendar for its next free slot.
func (c *Client) NextAvailable(ctx context.Context) (*NextAvailableResponse, error) {
	var out NextAvailableResponse
	if err := c.invoke(ctx, "next_available", http.MethodGet, "/api/sofia/next-available", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAppointment mirrors a booking. The calendar is health-checked first
// so a dead service fails fast instead of burning retries. A failed health
// check counts against the breaker.
func (c *Client) CreateAppointment(ctx context.Context, req AppointmentRequest) (*AppointmentResponse, error) {
	if strings.TrimSpace(req.PatientName) == "" || strings.TrimSpace(req.RequestedDate) == "" || strings.TrimSpace(req.RequestedTime) == "" {
		return nil, errors.New("calendarbridge: patient name, date and time required")
	}
	if err := c.breaker.Allow(); err != nil {
		c.metrics.ObserveBridgeRequest("create_appointment", "circuit_open", 0)
		return nil, unavailable(err)
	}
	if err := c.Health(ctx); err != nil {
		c.breaker.Failure()
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("calendarbridge: marshal appointment: %w", err)
	}
	var out AppointmentResponse
	if err := c.invoke(ctx, "create_appointment", http.MethodPost, "/api/sofia/appointment", nil, body, &out); err != nil {
		return nil, err
	}
	c.logger.Info("calendar appointment created",
		"date", req.RequestedDate,
		"time", req.RequestedTime,
		"phone", maskPhone(req.PatientPhone),
	)
	return &out, nil
}

// CheckDate asks how busy one day is in the calendar.
func (c *Client) CheckDate(ctx context.Context, date string) (*DateAvailability, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, errors.New("calendarbridge: date required")
	}
	var out DateAvailability
	if err := c.invoke(ctx, "check_date", http.MethodGet, "/api/sofia/check-date/"+url.PathEscape(date), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Today lists today's appointments as the calendar sees them.
func (c *Client) Today(ctx context.Context) (*AppointmentList, error) {
	var out AppointmentList
	if err := c.invoke(ctx, "today", http.MethodGet, "/api/sofia/today", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SuggestTimes asks for the first free time of up to limit days within the
// next days days.
func (c *Client) SuggestTimes(ctx context.Context, days, limit int) (*SuggestionsResponse, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out SuggestionsResponse
	if err := c.invoke(ctx, "suggest_times", http.MethodGet, "/api/sofia/suggest-times", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatientAppointments lists a patient's upcoming calendar appointments.
func (c *Client) PatientAppointments(ctx context.Context, phone string) (*AppointmentList, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, errors.New("calendarbridge: phone required")
	}
	var out AppointmentList
	if err := c.invoke(ctx, "patient_appointments", http.MethodGet, "/api/sofia/patient/"+url.PathEscape(phone), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// invoke runs one logical call through the breaker and decodes the JSON body
// into out.
func (c *Client) invoke(ctx context.Context, endpoint, method, path string, query url.Values, body []byte, out enveloped) error {
	ctx, span := bridgeTracer.Start(ctx, "calendarbridge."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("sofia.bridge_endpoint", endpoint),
			attribute.String("http.method", method),
		),
	)
	defer span.End()

	start := time.Now()
	if err := c.breaker.Allow(); err != nil {
		c.metrics.ObserveBridgeRequest(endpoint, "circuit_open", 0)
		span.SetStatus(codes.Error, "circuit open")
		return unavailable(err)
	}

	data, err := c.do(ctx, method, path, query, body)
	if err == nil {
		if decodeErr := json.Unmarshal(data, out); decodeErr != nil {
			err = fmt.Errorf("decode %s response: %w", endpoint, decodeErr)
		}
	}
	elapsed := time.Since(start).Seconds()
	if err != nil {
		c.breaker.Failure()
		c.metrics.ObserveBridgeRequest(endpoint, "error", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "bridge request failed")
		c.logger.Warn("calendar request failed", "endpoint", endpoint, "error", err)
		return unavailable(err)
	}
	c.breaker.Success()

	if env := out.envelope(); env.Failed() {
		c.metrics.ObserveBridgeRequest(endpoint, "rejected", elapsed)
		span.SetStatus(codes.Error, "rejected")
		return unavailable(fmt.Errorf("%s rejected: %s", endpoint, env.Message))
	}
	c.metrics.ObserveBridgeRequest(endpoint, "ok", elapsed)
	return nil
}

// do performs the HTTP exchange with bounded retries on network errors, 429
// and 5xx.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		data, status, err := c.attempt(ctx, method, fullURL, body)
		if err == nil && status >= 200 && status < 300 {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil {
			err = &statusError{StatusCode: status, Body: strings.TrimSpace(string(data))}
		}
		lastErr = err
		if attempt == c.maxAttempts || !shouldRetry(status, err) {
			break
		}
		c.logger.Warn("calendar retry", "path", path, "attempt", attempt, "status", status, "error", err)
		if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, method, fullURL string, body []byte) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

// backoffFor returns the wait after the given failed attempt: base, 2*base,
// 4*base and so on, capped at maxBackoff.
func (c *Client) backoffFor(attempt int) time.Duration {
	delay := c.backoff << (attempt - 1)
	if delay <= 0 || delay > c.maxBackoff {
		delay = c.maxBackoff
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.backoffFor(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func shouldRetry(status int, err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	return status == http.StatusTooManyRequests || status >= 500
}

type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("calendar returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("calendar returned status %d: %s", e.StatusCode, e.Body)
}

// unavailable classifies err as BRIDGE_UNAVAILABLE while keeping it in the
// chain.
func unavailable(err error) error {
	return fmt.Errorf("calendarbridge: %w: %w", appointments.ErrBridgeUnavailable, err)
}
