package postgrest

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

	"github.com/rs/zerolog"
)

const (
	restPath         = "/rest/v1/"
	maxErrorBodySize = 64 * 1024
)

// ErrNotFound is returned by SelectOne when no row matches the filter.
var ErrNotFound = errors.New("postgrest: row not found")

// Config contains the connection details of a hosted data API instance.
type Config struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// APIError is the error document returned by the data API for non-2xx responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the REST-over-HTTP data API of one backend instance.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// New constructs a client for the given instance.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("postgrest url and api key must be provided")
	}

	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.URL), "/") + restPath)
	if err != nil {
		return nil, fmt.Errorf("invalid postgrest url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    httpClient,
		logger:  logger.With().Str("component", "postgrest").Str("host", base.Host).Logger(),
	}, nil
}

// Select fetches all rows of table matching query into out, which must point to a slice.
func (c *Client) Select(ctx context.Context, table string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, table, query, nil, "", out)
}

// SelectOne fetches the first row of table matching query into out.
func (c *Client) SelectOne(ctx context.Context, table string, query url.Values, out interface{}) error {
	q := cloneValues(query)
	q.Set("limit", "1")

	var rows []json.RawMessage
	if err := c.do(ctx, http.MethodGet, table, q, nil, "", &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return fmt.Errorf("decode %s row: %w", table, err)
	}
	return nil
}

// Insert creates row in table. When out is non-nil the stored representation is decoded into it.
func (c *Client) Insert(ctx context.Context, table string, row interface{}, out interface{}) error {
	return c.write(ctx, http.MethodPost, table, nil, row, out)
}

// Update patches every row of table matching query.
func (c *Client) Update(ctx context.Context, table string, query url.Values, patch interface{}, out interface{}) error {
	if len(query) == 0 {
		return fmt.Errorf("postgrest: refusing to update %s without a filter", table)
	}
	return c.write(ctx, http.MethodPatch, table, query, patch, out)
}

func (c *Client) write(ctx context.Context, method, table string, query url.Values, body interface{}, out interface{}) error {
	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
	}

	var rows []json.RawMessage
	var target interface{}
	if out != nil {
		target = &rows
	}
	if err := c.do(ctx, method, table, query, body, prefer, target); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return fmt.Errorf("decode %s row: %w", table, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body interface{}, prefer string, out interface{}) error {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimLeft(table, "/")})
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", table, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("postgrest %s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("table", table).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("data api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", table, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values)+1)
	for key, items := range values {
		out[key] = append([]string(nil), items...)
	}
	return out
}
