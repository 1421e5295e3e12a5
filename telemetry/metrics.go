// Package telemetry provides Prometheus metrics, correlation-id aware logging
// helpers, and OpenTelemetry tracing setup.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	ChargesGranted      prometheus.Counter
	ChargeDenials       *prometheus.CounterVec // reason: no_entitlement|exhausted|store_unavailable
	Refunds             prometheus.Counter
	LookupsStarted      prometheus.Counter
	LookupsSucceeded    prometheus.Counter
	LookupsFailed       prometheus.Counter
	TrackLookupFailures prometheus.Counter

	// Histograms (seconds)
	LookupDuration prometheus.Observer

	// Gauges
	ActiveLookupsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ChargesGranted = promauto.NewCounter(prometheus.CounterOpts{Name: "prodscout_charges_granted_total", Help: "Number of credit charges granted"})
		ChargeDenials = promauto.NewCounterVec(prometheus.CounterOpts{Name: "prodscout_charge_denials_total", Help: "Number of credit charges denied"}, []string{"reason"})
		Refunds = promauto.NewCounter(prometheus.CounterOpts{Name: "prodscout_refunds_total", Help: "Number of credits refunded after failed lookups"})
		LookupsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "prodscout_lookups_started_total", Help: "Number of album lookup runs started"})
		LookupsSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "prodscout_lookups_succeeded_total", Help: "Number of album lookup runs succeeded"})
		LookupsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "prodscout_lookups_failed_total", Help: "Number of album lookup runs failed"})
		TrackLookupFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "prodscout_track_lookup_failures_total", Help: "Number of per-track lookups absorbed as fallback rows"})
		LookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "prodscout_lookup_duration_seconds", Help: "Album lookup run duration seconds", Buckets: prometheus.ExponentialBuckets(1, 2, 10)})
		ActiveLookupsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "prodscout_active_lookups", Help: "Album lookup runs currently in flight"})
	})
}

// DenyReason increments the denial counter for a reason label if metrics are initialized.
func DenyReason(reason string) {
	if ChargeDenials != nil {
		ChargeDenials.WithLabelValues(reason).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
