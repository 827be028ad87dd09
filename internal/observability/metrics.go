package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds all application metrics. The service keeps no job state of
// its own, so job gauges belong to the cluster; what we record here is the
// traffic flowing through this API and the lifecycle states callers observe.
type Metrics struct {
	meter metric.Meter

	// HTTP metrics
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPErrorsTotal     metric.Int64Counter

	// Job lifecycle metrics
	JobsSubmitted  metric.Int64Counter
	JobsRemoved    metric.Int64Counter
	StatusResolved metric.Int64Counter
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("procman")
	m := &Metrics{meter: meter}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPErrorsTotal, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsSubmitted, err = meter.Int64Counter(
		"jobs_submitted_total",
		metric.WithDescription("Total number of jobs submitted to the cluster"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsRemoved, err = meter.Int64Counter(
		"jobs_removed_total",
		metric.WithDescription("Total number of jobs removed"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.StatusResolved, err = meter.Int64Counter(
		"job_status_resolved_total",
		metric.WithDescription("Status queries by resolved lifecycle state"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(statusCode),
	)

	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)

	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordJobSubmitted records a job being submitted to the cluster.
func (m *Metrics) RecordJobSubmitted(ctx context.Context, image string) {
	m.JobsSubmitted.Add(ctx, 1, metric.WithAttributes(imageAttr(image)))
}

// RecordJobRemoved records a job being removed.
func (m *Metrics) RecordJobRemoved(ctx context.Context) {
	m.JobsRemoved.Add(ctx, 1)
}

// RecordStatusResolved records the lifecycle state a status query resolved to.
func (m *Metrics) RecordStatusResolved(ctx context.Context, status string) {
	m.StatusResolved.Add(ctx, 1, metric.WithAttributes(statusNameAttr(status)))
}
