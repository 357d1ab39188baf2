package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrAddressUnknown indicates the explorer has never seen the address.
var ErrAddressUnknown = errors.New("address unknown to explorer")

// TooManyRequestsError represents rate limiting signal from the explorer.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Activity summarizes payments received by one address.
type Activity struct {
	Address string
	// Received is the total of incoming outputs in BTC, unconfirmed ones included.
	Received      decimal.Decimal
	TransactionID string
	// Confirmations is the lowest confirmation count among incoming transactions.
	Confirmations int
}

// Seen reports whether anything was paid to the address.
func (a *Activity) Seen() bool {
	return a != nil && a.TransactionID != "" && a.Received.IsPositive()
}

// Client exposes address lookups against a block explorer.
type Client interface {
	AddressActivity(ctx context.Context, address string) (*Activity, error)
}

// HTTPClient implements Client against a BlockCypher-compatible API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type txRef struct {
	TxHash        string `json:"tx_hash"`
	TxInputN      int    `json:"tx_input_n"`
	Value         int64  `json:"value"`
	Confirmations int    `json:"confirmations"`
}

// addressResponse mirrors the address endpoint payload.
type addressResponse struct {
	Address           string  `json:"address"`
	TxRefs            []txRef `json:"txrefs"`
	UnconfirmedTxRefs []txRef `json:"unconfirmed_txrefs"`
}

// NewHTTPClient creates explorer client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse explorer url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("explorer url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// AddressActivity fetches received outputs for address.
func (c *HTTPClient) AddressActivity(ctx context.Context, address string) (*Activity, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/addrs/", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var data addressResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, err
		}
		return summarize(address, data), nil
	case http.StatusNotFound:
		return nil, ErrAddressUnknown
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("explorer request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, fmt.Errorf("explorer error: %s", resp.Status)
	}
}

func summarize(address string, data addressResponse) *Activity {
	activity := &Activity{Address: address}
	var satoshis int64
	first := true

	refs := append(append([]txRef{}, data.UnconfirmedTxRefs...), data.TxRefs...)
	for _, ref := range refs {
		// outputs carry a negative input index
		if ref.TxInputN >= 0 {
			continue
		}
		satoshis += ref.Value
		if first || ref.Confirmations < activity.Confirmations {
			activity.Confirmations = ref.Confirmations
			activity.TransactionID = ref.TxHash
			first = false
		}
	}
	activity.Received = decimal.New(satoshis, -8)
	return activity
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
