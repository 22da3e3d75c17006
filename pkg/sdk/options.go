package cardquery

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	noFallback bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithBaseURL sets the service address, e.g. https://cardquery.example.
// Required.
func WithBaseURL(u string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = u
	})
}

// WithAPIKey sets the bearer credential: an API secret, the service
// secret (admin calls) or a signed token.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout bounds each request of the default HTTP client.
// Default: 10s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithoutFallback makes Translate return ErrUnavailable instead of
// answering from the offline compiler.
func WithoutFallback() Option {
	return optionFunc(func(c *clientConfig) {
		c.noFallback = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations and
// offline fallbacks) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// RequestOption adjusts one translate or search request.
type RequestOption func(*translateBody)

// WithSession attributes the request to a client session for rate limiting.
func WithSession(id string) RequestOption {
	return func(b *translateBody) { b.SessionID = id }
}

// WithFilters narrows the translated query.
func WithFilters(f Filters) RequestOption {
	return func(b *translateBody) { b.Filters = &f }
}
