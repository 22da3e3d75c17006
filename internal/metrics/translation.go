package metrics

import "github.com/prometheus/client_golang/prometheus"

// Translation Prometheus metrics.
var (
	TranslationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardquery",
			Name:      "translations_total",
			Help:      "Translations by source",
		},
		[]string{"source"}, // cache / rule / pipeline
	)

	TranslationCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardquery",
			Name:      "translation_cache_total",
			Help:      "Translation cache hits, misses and shared computations",
		},
		[]string{"result"}, // "hit" / "miss" / "shared"
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cardquery",
			Name:      "pipeline_duration_seconds",
			Help:      "Compile pipeline duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	RateLimitRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardquery",
			Name:      "rate_limit_rejects_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	FeedbackOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardquery",
			Name:      "feedback_outcomes_total",
			Help:      "Processed feedback items by terminal status",
		},
		[]string{"status"},
	)

	MinerRulesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cardquery",
			Name:      "miner_rules_created_total",
			Help:      "Rules created by the pattern miner",
		},
	)
)

var translationMetricsRegistered bool

// RegisterTranslationMetrics registers Prometheus translation metrics. Must be called once from main.
func RegisterTranslationMetrics() {
	if translationMetricsRegistered {
		return
	}
	prometheus.MustRegister(TranslationsTotal)
	prometheus.MustRegister(TranslationCacheTotal)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(RateLimitRejectsTotal)
	prometheus.MustRegister(FeedbackOutcomesTotal)
	prometheus.MustRegister(MinerRulesCreatedTotal)
	translationMetricsRegistered = true
}
