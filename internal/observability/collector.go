// Package observability provides metrics collection and tracing for CLI operations.
package observability

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/mzansiplatess/plates-cli/internal/api"
)

const namespace = "plates"

// SessionMetrics aggregates metrics for an entire CLI session.
type SessionMetrics struct {
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	TotalRequests   int           `json:"total_requests"`
	FailedRequests  int           `json:"failed_requests"`
	TotalOperations int           `json:"total_operations"`
	FailedOps       int           `json:"failed_operations"`
	TotalRetries    int           `json:"total_retries"`
	TotalLatency    time.Duration `json:"total_latency"`
}

// SessionCollector accumulates metrics across a CLI session in a private
// Prometheus registry. It is safe for concurrent use.
type SessionCollector struct {
	mu        sync.Mutex
	startTime time.Time

	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	operations *prometheus.CounterVec
	retries    prometheus.Counter
}

// NewSessionCollector creates a new SessionCollector.
func NewSessionCollector() *SessionCollector {
	c := &SessionCollector{startTime: time.Now()}
	c.init()
	return c
}

func (c *SessionCollector) init() {
	c.registry = prometheus.NewRegistry()
	c.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests sent to the API.",
	}, []string{"method", "status"})
	c.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"method"})
	c.operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "operations_total",
		Help:      "Typed API operations by outcome.",
	}, []string{"operation", "result"})
	c.retries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "retries_total",
		Help:      "Retried HTTP requests.",
	})
	c.registry.MustRegister(c.requests, c.latency, c.operations, c.retries)
}

// Registry exposes the collector's registry.
func (c *SessionCollector) Registry() *prometheus.Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry
}

// RecordRequest records one HTTP attempt. Transport failures are counted
// with status "error".
func (c *SessionCollector) RecordRequest(info api.RequestInfo, result api.RequestResult) {
	status := "error"
	if result.StatusCode != 0 {
		status = strconv.Itoa(result.StatusCode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests.WithLabelValues(info.Method, status).Inc()
	c.latency.WithLabelValues(info.Method).Observe(result.Duration.Seconds())
}

// RecordOperation records a typed operation and whether it failed.
func (c *SessionCollector) RecordOperation(op api.OperationInfo, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.operations.WithLabelValues(op.Name, result).Inc()
}

// RecordRetry records a retry event.
func (c *SessionCollector) RecordRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries.Inc()
}

// Summary returns aggregated metrics for the session, read back from the
// registry.
func (c *SessionCollector) Summary() SessionMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := SessionMetrics{StartTime: c.startTime, EndTime: time.Now()}
	families, err := c.registry.Gather()
	if err != nil {
		return m
	}
	for _, f := range families {
		switch f.GetName() {
		case namespace + "_http_requests_total":
			for _, metric := range f.GetMetric() {
				n := int(metric.GetCounter().GetValue())
				m.TotalRequests += n
				if failedStatus(label(metric, "status")) {
					m.FailedRequests += n
				}
			}
		case namespace + "_http_request_duration_seconds":
			for _, metric := range f.GetMetric() {
				m.TotalLatency += time.Duration(metric.GetHistogram().GetSampleSum() * float64(time.Second))
			}
		case namespace + "_api_operations_total":
			for _, metric := range f.GetMetric() {
				n := int(metric.GetCounter().GetValue())
				m.TotalOperations += n
				if label(metric, "result") == "error" {
					m.FailedOps += n
				}
			}
		case namespace + "_http_retries_total":
			for _, metric := range f.GetMetric() {
				m.TotalRetries += int(metric.GetCounter().GetValue())
			}
		}
	}
	return m
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func failedStatus(status string) bool {
	code, err := strconv.Atoi(status)
	return err != nil || code >= 400
}

// Reset clears all collected metrics and resets the start time.
func (c *SessionCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
	c.init()
}

// FormatSummary renders the one-line --stats report.
func FormatSummary(m SessionMetrics) string {
	parts := []string{
		plural(m.TotalRequests, "request"),
		plural(m.TotalOperations, "operation"),
	}
	if m.FailedRequests > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", m.FailedRequests))
	}
	if m.TotalRetries > 0 {
		parts = append(parts, plural(m.TotalRetries, "retry"))
	}
	parts = append(parts,
		fmt.Sprintf("%dms in HTTP", m.TotalLatency.Milliseconds()),
		fmt.Sprintf("%dms total", m.EndTime.Sub(m.StartTime).Milliseconds()),
	)
	return "Stats: " + strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(noun, "y"))
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
