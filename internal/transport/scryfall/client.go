// Package scryfall is the HTTP client for the upstream card search API.
// Upstream failures are reported as the domain upstream errors so the
// transport layer can give each its own status code.
package scryfall

import (
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

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/domain"
	"github.com/kailas-cloud/cardquery/internal/domain/search/request"
	"github.com/kailas-cloud/cardquery/internal/domain/search/result"
)

// DefaultBaseURL is the public search API.
const DefaultBaseURL = "https://api.scryfall.com"

const maxErrorBody = 4 << 10

// Config holds the search API settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
}

// Client calls the search API.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	logger    *zap.Logger
}

// New creates a search API client.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "cardquery/1.0"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   base,
		userAgent: ua,
		logger:    logger,
	}
}

// Search runs a compiled query and returns one page of cards.
func (c *Client) Search(ctx context.Context, req request.Request) (result.Page, error) {
	params := url.Values{}
	params.Set("q", req.Query())
	params.Set("page", strconv.Itoa(req.Page()))
	params.Set("unique", string(req.Unique()))
	if req.Order() != "" {
		params.Set("order", req.Order())
	}

	var list listResponse
	if err := c.get(ctx, "/cards/search", params, &list); err != nil {
		return result.Page{}, err
	}

	cards := make([]result.Card, 0, len(list.Data))
	for _, cj := range list.Data {
		cards = append(cards, cj.toDomain())
	}
	return result.NewPage(list.TotalCards, list.HasMore, cards), nil
}

// Count returns how many cards match a query. A query matching nothing
// returns domain.ErrUpstreamNoResults.
func (c *Client) Count(ctx context.Context, query string) (int, error) {
	params := url.Values{}
	params.Set("q", query)

	var list listResponse
	if err := c.get(ctx, "/cards/search", params, &list); err != nil {
		return 0, err
	}
	if list.TotalCards == 0 {
		return 0, domain.ErrUpstreamNoResults
	}
	return list.TotalCards, nil
}

// Ping checks that the API answers.
func (c *Client) Ping(ctx context.Context) error {
	var v json.RawMessage
	return c.get(ctx, "/symbology", nil, &v)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("Search API request failed",
			zap.String("path", path), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode search response: %w: %w", err, domain.ErrUpstreamUnavailable)
	}
	return nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("search API: %w", domain.ErrUpstreamTimeout)
	}
	return fmt.Errorf("search API: %v: %w", err, domain.ErrUpstreamUnavailable)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e errorResponse
	detail := ""
	if json.Unmarshal(body, &e) == nil {
		detail = e.Details
	}

	var wrap error
	switch {
	case resp.StatusCode == http.StatusNotFound:
		wrap = domain.ErrUpstreamNoResults
	case resp.StatusCode == http.StatusTooManyRequests:
		wrap = domain.ErrUpstreamQuota
	case resp.StatusCode == http.StatusBadRequest:
		wrap = domain.ErrInvalidInput
	case resp.StatusCode == http.StatusGatewayTimeout:
		wrap = domain.ErrUpstreamTimeout
	default:
		wrap = domain.ErrUpstreamUnavailable
	}
	if detail != "" {
		return fmt.Errorf("search API status %d: %s: %w", resp.StatusCode, detail, wrap)
	}
	return fmt.Errorf("search API status %d: %w", resp.StatusCode, wrap)
}
