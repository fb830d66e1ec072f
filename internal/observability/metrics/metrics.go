package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for booking and bridge flows.
type SchedulingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	availabilityTotal  *prometheus.CounterVec
	cancellationsTotal *prometheus.CounterVec
	bridgeRequests     *prometheus.CounterVec
	bridgeLatency      *prometheus.HistogramVec
	breakerState       prometheus.Gauge
	mirrorJobs         *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sofia",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome (booked or error kind)",
		}, []string{"outcome", "treatment"}),
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sofia",
			Subsystem: "scheduling",
			Name:      "availability_checks_total",
			Help:      "Slot availability checks by result",
		}, []string{"result"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sofia",
			Subsystem: "scheduling",
			Name:      "cancellations_total",
			Help:      "Cancellation requests by outcome",
		}, []string{"outcome"}),
		bridgeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sofia",
			Subsystem: "calendar_bridge",
			Name:      "requests_total",
			Help:      "External calendar requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		bridgeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sofia",
			Subsystem: "calendar_bridge",
			Name:      "request_latency_seconds",
			Help:      "Latency of external calendar requests including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sofia",
			Subsystem: "calendar_bridge",
			Name:      "circuit_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}),
		mirrorJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sofia",
			Subsystem: "calendar_bridge",
			Name:      "mirror_jobs_total",
			Help:      "Booking mirror jobs by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.availabilityTotal, m.cancellationsTotal,
		m.bridgeRequests, m.bridgeLatency, m.breakerState, m.mirrorJobs)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(outcome, treatment string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome, treatment).Inc()
}

func (m *SchedulingMetrics) ObserveAvailability(result string) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(result).Inc()
}

func (m *SchedulingMetrics) ObserveCancellation(outcome string) {
	if m == nil {
		return
	}
	m.cancellationsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveBridgeRequest(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.bridgeRequests.WithLabelValues(endpoint, outcome).Inc()
	m.bridgeLatency.WithLabelValues(endpoint).Observe(seconds)
}

// SetBreakerState records 0 for closed, 1 for half-open and 2 for open.
func (m *SchedulingMetrics) SetBreakerState(state float64) {
	if m == nil {
		return
	}
	m.breakerState.Set(state)
}

func (m *SchedulingMetrics) ObserveMirrorJob(status string) {
	if m == nil {
		return
	}
	m.mirrorJobs.WithLabelValues(status).Inc()
}
