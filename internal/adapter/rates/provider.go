package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TooManyRequestsError represents rate limiting signal from the rates API.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Provider returns the price of one bitcoin in fiat.
type Provider interface {
	BTCRate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// HTTPProvider queries a Coinbase-compatible spot price endpoint.
type HTTPProvider struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type spotResponse struct {
	Data struct {
		Base     string `json:"base"`
		Currency string `json:"currency"`
		Amount   string `json:"amount"`
	} `json:"data"`
}

// NewHTTPProvider creates rates client with default timeout.
func NewHTTPProvider(baseURL string, logger *slog.Logger) (*HTTPProvider, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse rates url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("rates url must be absolute")
	}
	return &HTTPProvider{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}, nil
}

// BTCRate fetches the current spot price of BTC in currency.
func (p *HTTPProvider) BTCRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	endpoint := *p.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/v2/prices/", "BTC-"+strings.ToUpper(currency), "spot")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return decimal.Zero, err
		}
		var data spotResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return decimal.Zero, err
		}
		rate, err := decimal.NewFromString(data.Data.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse rate %q: %w", data.Data.Amount, err)
		}
		return rate, nil
	case http.StatusTooManyRequests:
		return decimal.Zero, TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		body, _ := io.ReadAll(resp.Body)
		p.logger.Error("rates request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return decimal.Zero, fmt.Errorf("rates error: %s", resp.Status)
	}
}

// FixedProvider always returns the configured rate.
type FixedProvider struct {
	Rate decimal.Decimal
}

func (p FixedProvider) BTCRate(context.Context, string) (decimal.Decimal, error) {
	return p.Rate, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
