package cardquery

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type sdkMetrics struct {
	calls     *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardquery",
			Subsystem: "sdk",
			Name:      "calls_total",
			Help:      "SDK calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cardquery",
			Subsystem: "sdk",
			Name:      "call_duration_seconds",
			Help:      "SDK call latency, offline fallbacks included.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardquery",
			Subsystem: "sdk",
			Name:      "offline_translations_total",
			Help:      "Translations answered by the bundled compiler, by cause.",
		}, []string{"cause"}),
	}
	for _, err := range []error{
		registerOrReuse(reg, &m.calls),
		registerOrReuse(reg, &m.latency),
		registerOrReuse(reg, &m.fallbacks),
	} {
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerOrReuse registers c, or swaps in the collector already registered
// under the same name so several clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("cardquery: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("cardquery: metric registered with type %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// outcome buckets an SDK error into a low-cardinality label.
func outcome(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.As(err, &apiErr) && apiErr.StatusCode < 500:
		return "rejected"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// observer logs and counts SDK calls. A nil observer does nothing.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)
	label := outcome(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, label).Inc()
		o.metrics.latency.WithLabelValues(op).Observe(elapsed.Seconds())
	}
	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("cardquery call failed", "op", op, "outcome", label, "elapsed", elapsed, "error", err)
		return
	}
	o.logger.Debug("cardquery call", "op", op, "elapsed", elapsed)
}

// fallback records a translation served offline because of cause.
func (o *observer) fallback(query string, cause error) {
	if o == nil {
		return
	}
	kind := "server"
	var te *TransportError
	if errors.As(cause, &te) {
		kind = "transport"
	}
	if o.metrics != nil {
		o.metrics.fallbacks.WithLabelValues(kind).Inc()
	}
	if o.logger != nil {
		o.logger.Warn("service unreachable, translated offline",
			"cause", kind,
			"query_len", len(query),
			"error", cause,
		)
	}
}
