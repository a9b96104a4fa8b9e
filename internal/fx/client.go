package fx

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

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	serviceName    = "fx"
)

var (
	// ErrRateLimited indicates the rate service throttled the request.
	ErrRateLimited = errors.New("fx: rate limited")
	// ErrUnexpectedBase indicates the service quoted rates against something other than USD.
	ErrUnexpectedBase = errors.New("fx: rates not quoted against USD")
)

// latestResponse is the rate service payload for GET /latest/USD.
type latestResponse struct {
	Result    string                 `json:"result"`
	BaseCode  string                 `json:"base_code"`
	ErrorType string                 `json:"error-type,omitempty"`
	Rates     map[string]json.Number `json:"rates"`
}

// Client fetches USD rate tables from an HTTP rate service.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
}

// Rates fetches the latest table. Failures are boundary errors.
func (c *Client) Rates(ctx context.Context) (RateTable, error) {
	body, err := c.get(ctx, "/latest/USD")
	if err != nil {
		return nil, model.Boundary(serviceName, err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw latestResponse
	if err := dec.Decode(&raw); err != nil {
		return nil, model.Boundary(serviceName, fmt.Errorf("fx: parsing rates: %w", err))
	}
	if raw.Result != "" && raw.Result != "success" {
		return nil, model.Boundary(serviceName, fmt.Errorf("fx: service returned %q (%s)", raw.Result, raw.ErrorType))
	}
	if raw.BaseCode != "" && !strings.EqualFold(raw.BaseCode, "USD") {
		return nil, model.Boundary(serviceName, ErrUnexpectedBase)
	}

	rates := make(map[string]decimal.Decimal, len(raw.Rates))
	for code, n := range raw.Rates {
		d, err := decimal.NewFromString(n.String())
		if err != nil || !d.IsPositive() {
			continue
		}
		rates[code] = d
	}
	return NewRateTable(rates), nil
}

// get performs a GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("fx: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/theirongolddev/budgetrecon/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fx: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fx: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("fx: reading response: %w", err)
	}
	return body, nil
}
