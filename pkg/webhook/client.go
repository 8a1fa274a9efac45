package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBodySize = 4 * 1024

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vetted",
		Subsystem: "webhook",
		Name:      "attempts_total",
		Help:      "Number of webhook POST attempts by outcome",
	}, []string{"outcome"})

	sendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vetted",
		Subsystem: "webhook",
		Name:      "send_duration_seconds",
		Help:      "Duration of a webhook send including retries",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
)

// ErrRejected matches a StatusError the receiver will not accept on retry.
var ErrRejected = errors.New("webhook rejected payload")

var errServer = errors.New("webhook server error")

// StatusError describes a non-2xx response from the webhook receiver.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook responded with status %d: %s", e.StatusCode, e.Body)
}

// Is reports client errors as ErrRejected.
func (e *StatusError) Is(target error) bool {
	return target == ErrRejected && e.StatusCode < http.StatusInternalServerError && e.StatusCode != http.StatusTooManyRequests
}

// Config defines the delivery target and retry policy.
type Config struct {
	URL             string
	Secret          string
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	HTTPClient      *http.Client
}

// Result summarises a completed send.
type Result struct {
	StatusCode int
	Attempts   int
	Duration   time.Duration
}

// Client posts JSON payloads to a webhook with exponential backoff.
type Client struct {
	cfg    Config
	http   *http.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

// New validates cfg, applies defaults and builds a client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		tracer: otel.Tracer("github.com/noah-isme/vetted-notifier/pkg/webhook"),
		logger: logger.With().Str("component", "webhook_client").Logger(),
	}, nil
}

// Send posts payload as JSON. Network errors, 429 and 5xx responses are retried;
// any other non-2xx response fails immediately with a StatusError.
func (c *Client) Send(parent context.Context, payload interface{}) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("encode webhook payload: %w", err)
	}

	ctx, span := c.tracer.Start(parent, "webhook.send", trace.WithAttributes(
		attribute.Int("webhook.payload_bytes", len(body)),
	))
	defer span.End()

	start := time.Now()
	result := Result{}
	var lastStatus *StatusError

	operation := func() error {
		result.Attempts++
		result.StatusCode = 0
		lastStatus = nil

		status, respBody, err := c.post(ctx, body)
		if err != nil {
			attemptsTotal.WithLabelValues("network_error").Inc()
			return err
		}
		result.StatusCode = status

		switch {
		case status >= 200 && status <= 299:
			attemptsTotal.WithLabelValues("success").Inc()
			return nil
		case status >= http.StatusInternalServerError || status == http.StatusTooManyRequests:
			attemptsTotal.WithLabelValues("server_error").Inc()
			lastStatus = &StatusError{StatusCode: status, Body: respBody}
			return errServer
		default:
			attemptsTotal.WithLabelValues("rejected").Inc()
			return backoff.Permanent(&StatusError{StatusCode: status, Body: respBody})
		}
	}

	notify := func(err error, wait time.Duration) {
		event := c.logger.Warn().Int("attempt", result.Attempts).Dur("retry_in", wait)
		if lastStatus != nil {
			event = event.Int("status", lastStatus.StatusCode)
		} else {
			event = event.Err(err)
		}
		event.Msg("webhook attempt failed, retrying")
	}

	err = backoff.RetryNotify(operation, c.policy(ctx), notify)
	result.Duration = time.Since(start)
	sendDuration.Observe(result.Duration.Seconds())
	span.SetAttributes(attribute.Int("webhook.attempts", result.Attempts), attribute.Int("webhook.status_code", result.StatusCode))

	if errors.Is(err, errServer) && lastStatus != nil {
		err = lastStatus
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	span.SetStatus(codes.Ok, "delivered")
	return result, nil
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.InitialInterval
	exp.MaxInterval = c.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, c.cfg.MaxRetries), ctx)
}

func (c *Client) post(parent context.Context, body []byte) (int, string, error) {
	ctx, cancel := context.WithTimeout(parent, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Secret != "" {
		req.Header.Set("X-Webhook-Secret", c.cfg.Secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	return resp.StatusCode, strings.TrimSpace(string(raw)), nil
}
