package cardquery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/cardquery/pkg/fallback"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Client is the cardquery SDK entry point. It is safe for concurrent use.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	fallback bool
	obs      *observer
}

// New creates a Client. WithBaseURL is required.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.baseURL == "" {
		return nil, errors.New("cardquery: base URL required (use WithBaseURL)")
	}
	u, err := url.Parse(cfg.baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("cardquery: invalid base URL %q", cfg.baseURL)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.baseURL, "/"),
		apiKey:   cfg.apiKey,
		http:     hc,
		fallback: !cfg.noFallback,
		obs:      obs,
	}, nil
}

// Translate compiles a natural-language search. If the service is
// unreachable or failing, the offline compiler answers instead.
func (c *Client) Translate(ctx context.Context, query string, opts ...RequestOption) (Translation, error) {
	start := time.Now()
	body := translateBody{Query: query}
	for _, o := range opts {
		o(&body)
	}

	var out Translation
	err := c.do(ctx, http.MethodPost, "/v1/translate", body, &out)
	if err != nil && c.fallback && ctx.Err() == nil && errors.Is(err, ErrUnavailable) {
		c.obs.fallback(query, err)
		out, err = Offline(query), nil
	}
	c.obs.observe("translate", start, err)
	return out, err
}

// Offline translates with the bundled compiler only.
func Offline(query string) Translation {
	return Translation{
		Query:       query,
		Compiled:    fallback.Compile(query),
		Explanation: "translated offline",
		Source:      SourceFallback,
	}
}

// Search translates a query and runs it against the card database. There
// is no offline fallback for searches.
func (c *Client) Search(ctx context.Context, query string, so SearchOptions, opts ...RequestOption) (SearchPage, error) {
	start := time.Now()
	body := searchBody{translateBody: translateBody{Query: query}, Page: so.Page, Order: so.Order, Unique: so.Unique}
	for _, o := range opts {
		o(&body.translateBody)
	}

	var out SearchPage
	err := c.do(ctx, http.MethodPost, "/v1/search", body, &out)
	c.obs.observe("search", start, err)
	return out, err
}

// SubmitFeedback reports a bad translation.
func (c *Client) SubmitFeedback(ctx context.Context, fb Feedback) (FeedbackReceipt, error) {
	start := time.Now()
	var out FeedbackReceipt
	err := c.do(ctx, http.MethodPost, "/v1/feedback", fb, &out)
	c.obs.observe("submit_feedback", start, err)
	return out, err
}

// GetFeedback returns the processing state of a report.
func (c *Client) GetFeedback(ctx context.Context, id string) (FeedbackItem, error) {
	start := time.Now()
	var out FeedbackItem
	err := c.do(ctx, http.MethodGet, "/v1/feedback/"+url.PathEscape(id), nil, &out)
	c.obs.observe("get_feedback", start, err)
	return out, err
}

// ProcessFeedback processes one pending report. Requires the service secret.
func (c *Client) ProcessFeedback(ctx context.Context, id string) (FeedbackOutcome, error) {
	start := time.Now()
	var out FeedbackOutcome
	err := c.do(ctx, http.MethodPost, "/v1/feedback/process", map[string]string{"feedbackId": id}, &out)
	c.obs.observe("process_feedback", start, err)
	return out, err
}

// Rules lists active learned rules.
func (c *Client) Rules(ctx context.Context, limit, offset int) ([]Rule, error) {
	start := time.Now()
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/v1/rules"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Items []Rule `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	c.obs.observe("rules", start, err)
	return out.Items, err
}

// Usage reports generation token usage for "day" or "month". Requires the
// service secret.
func (c *Client) Usage(ctx context.Context, period string) (Usage, error) {
	start := time.Now()
	path := "/v1/admin/usage"
	if period != "" {
		path += "?period=" + url.QueryEscape(period)
	}
	var out Usage
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	c.obs.observe("usage", start, err)
	return out, err
}

// Health checks the service. An unhealthy service answers 503 with a
// report, which is returned without error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	start := time.Now()
	var out HealthStatus
	resp, err := c.send(ctx, http.MethodGet, "/health", nil)
	if err == nil {
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK, http.StatusServiceUnavailable:
			if derr := json.NewDecoder(resp.Body).Decode(&out); derr != nil {
				err = fmt.Errorf("cardquery: decode health: %w", derr)
			}
		default:
			err = decodeAPIError(resp)
		}
	}
	c.obs.observe("health", start, err)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cardquery: decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("cardquery: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("cardquery: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		apiErr.Fields = body.Fields
		apiErr.RetryAfter = time.Duration(body.RetryAfter) * time.Second
	}
	if apiErr.RetryAfter == 0 {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}
