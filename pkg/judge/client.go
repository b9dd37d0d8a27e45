package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 8 << 20

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "judge",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP calls to the remote judge",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	gatewayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "judge",
		Name:      "errors_total",
		Help:      "Number of failed judge operations by kind",
	}, []string{"op", "kind"})

	pollRounds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "judge",
		Name:      "poll_rounds_total",
		Help:      "Number of batch status requests issued while polling",
	})
)

// Config groups judge client configuration values.
type Config struct {
	BaseURL      string
	APIKey       string
	APIHost      string
	AuthToken    string
	HTTPTimeout  time.Duration
	PollInterval time.Duration
	PollDeadline time.Duration
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

// Client talks to the remote judge using its batch submit-then-poll API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	cfg     Config
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewClient constructs a judge client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("judge base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse judge base url: %w", err)
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.PollDeadline <= 0 {
		cfg.PollDeadline = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		cfg:     cfg,
		tracer:  otel.Tracer("github.com/noah-isme/gema-judge-api/pkg/judge"),
		logger:  logger.With().Str("component", "judge_client").Logger(),
	}, nil
}

// SubmitBatch sends every submission in one request and returns one token per
// submission, in request order.
func (c *Client) SubmitBatch(ctx context.Context, submissions []Submission) ([]Token, error) {
	const op = "submit"

	ctx, span := c.tracer.Start(ctx, "judge.submit_batch", trace.WithAttributes(
		attribute.Int("judge.batch_size", len(submissions)),
	))
	defer span.End()

	if len(submissions) == 0 {
		return []Token{}, nil
	}

	body, err := json.Marshal(batchRequest{Submissions: submissions})
	if err != nil {
		return nil, c.fail(span, protocolError(op, "encode batch: %w", err))
	}

	endpoint := c.endpoint("/submissions/batch", url.Values{"base64_encoded": {"false"}})
	raw, err := c.do(ctx, op, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, c.fail(span, err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, c.fail(span, protocolError(op, "decode tokens: %w", err))
	}
	if err := tokensValidator.Validate(doc); err != nil {
		return nil, c.fail(span, protocolError(op, "unexpected tokens payload: %w", err))
	}

	var payload []tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, c.fail(span, protocolError(op, "decode tokens: %w", err))
	}
	if len(payload) != len(submissions) {
		return nil, c.fail(span, protocolError(op, "expected %d tokens, got %d", len(submissions), len(payload)))
	}

	tokens := make([]Token, len(payload))
	for i, item := range payload {
		tokens[i] = Token(item.Token)
	}

	return tokens, nil
}

// PollUntilComplete requests the status of the whole batch until every token is
// terminal. Transient failures are retried on the next round; the loop gives up
// with a KindTimeout error once deadline has elapsed.
func (c *Client) PollUntilComplete(ctx context.Context, tokens []Token, interval, deadline time.Duration) ([]Result, error) {
	if len(tokens) == 0 {
		return []Result{}, nil
	}
	if interval <= 0 {
		interval = c.cfg.PollInterval
	}
	if deadline <= 0 {
		deadline = c.cfg.PollDeadline
	}

	ctx, span := c.tracer.Start(ctx, "judge.poll_until_complete", trace.WithAttributes(
		attribute.Int("judge.batch_size", len(tokens)),
	))
	defer span.End()

	pollCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	wait := interval
	for round := 1; ; round++ {
		pollRounds.Inc()

		results, err := c.fetch(pollCtx, tokens)
		switch {
		case err == nil:
			if pending := countPending(results); pending == 0 {
				span.SetAttributes(attribute.Int("judge.poll_rounds", round))
				return results, nil
			}
		case IsTransient(err):
			gatewayErrors.WithLabelValues("poll", string(KindTransient)).Inc()
			if pollCtx.Err() == nil {
				c.logger.Warn().Err(err).Int("round", round).Msg("judge poll failed, retrying")
			}
		default:
			return nil, c.fail(span, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				span.SetStatus(codes.Error, "poll cancelled")
				return nil, fmt.Errorf("judge poll cancelled: %w", ctx.Err())
			}
			return nil, c.fail(span, &Error{
				Kind: KindTimeout,
				Op:   "poll",
				Err:  fmt.Errorf("batch of %d not finished after %s (%d rounds)", len(tokens), deadline, round),
			})
		case <-timer.C:
		}

		wait = nextInterval(wait, interval)
	}
}

func (c *Client) fetch(ctx context.Context, tokens []Token) ([]Result, error) {
	const op = "poll"

	ids := make([]string, len(tokens))
	for i, token := range tokens {
		ids[i] = string(token)
	}

	endpoint := c.endpoint("/submissions/batch", url.Values{
		"tokens":         {strings.Join(ids, ",")},
		"fields":         {"*"},
		"base64_encoded": {"false"},
	})

	raw, err := c.do(ctx, op, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, protocolError(op, "decode results: %w", err)
	}
	if err := resultsValidator.Validate(doc); err != nil {
		return nil, protocolError(op, "unexpected results payload: %w", err)
	}

	var payload batchResultPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, protocolError(op, "decode results: %w", err)
	}

	return correlate(tokens, payload.Submissions)
}

// correlate orders results to match tokens. When the judge echoes tokens the
// results are matched by token, otherwise positional order is assumed.
func correlate(tokens []Token, payloads []resultPayload) ([]Result, error) {
	if len(payloads) != len(tokens) {
		return nil, protocolError("poll", "expected %d results, got %d", len(tokens), len(payloads))
	}

	results := make([]Result, len(tokens))

	index := make(map[Token]int, len(tokens))
	for i, token := range tokens {
		index[token] = i
	}

	echoed := len(index) == len(tokens)
	for _, payload := range payloads {
		if payload.Token == "" {
			echoed = false
			break
		}
	}

	if !echoed {
		for i, payload := range payloads {
			results[i] = payload.toResult()
			results[i].Token = tokens[i]
		}
		return results, nil
	}

	seen := make([]bool, len(tokens))
	for _, payload := range payloads {
		i, ok := index[Token(payload.Token)]
		if !ok {
			return nil, protocolError("poll", "unknown token %q in results", payload.Token)
		}
		if seen[i] {
			return nil, protocolError("poll", "duplicate token %q in results", payload.Token)
		}
		seen[i] = true
		results[i] = payload.toResult()
	}

	return results, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, protocolError(op, "build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	}
	if c.cfg.APIHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.cfg.APIHost)
	}
	if c.cfg.AuthToken != "" {
		req.Header.Set("X-Auth-Token", c.cfg.AuthToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, transientError(op, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transientError(op, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusRequestTimeout:
		return nil, transientError(op, resp.StatusCode, fmt.Errorf("%s", snippet(raw)))
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, &Error{Kind: KindProtocol, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", snippet(raw))}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, protocolError(op, "empty response body")
	}

	return raw, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) fail(span trace.Span, err error) error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		gatewayErrors.WithLabelValues(gwErr.Op, string(gwErr.Kind)).Inc()
		if gwErr.Kind == KindProtocol {
			c.logger.Error().Err(err).Str("op", gwErr.Op).Msg("judge violated wire contract")
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func countPending(results []Result) int {
	pending := 0
	for _, result := range results {
		if !result.Terminal() {
			pending++
		}
	}
	return pending
}

// nextInterval grows the poll interval by half, capped at four times the base.
func nextInterval(current, base time.Duration) time.Duration {
	next := current + current/2
	if limit := 4 * base; next > limit {
		return limit
	}
	return next
}

func snippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > 256 {
		return text[:256] + "..."
	}
	if text == "" {
		return "no body"
	}
	return text
}
