package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// sessionNamespace scopes locally generated session handles.
var sessionNamespace = uuid.MustParse("9b7c4f2e-51a4-4c7e-9a55-0d6f3b8a2c11")

// SessionRequest describes the checkout the processor should collect.
type SessionRequest = model.SessionRequest

// Gateway opens payment sessions with an external processor.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (string, error)
}

// HTTPGateway creates sessions through the processor REST API.
type HTTPGateway struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

type sessionPayload struct {
	Reference string          `json:"reference"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

type sessionResponse struct {
	ID string `json:"id"`
}

// NewHTTPGateway creates processor client with default timeout.
func NewHTTPGateway(baseURL, apiKey string, logger *slog.Logger) (*HTTPGateway, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse processor url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("processor url must be absolute")
	}
	return &HTTPGateway{
		baseURL: parsed,
		apiKey:  apiKey,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// CreateSession registers the order with the processor and returns its session id.
func (g *HTTPGateway) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	endpoint := *g.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/v1/sessions")

	body, err := json.Marshal(sessionPayload{
		Reference: strconv.FormatInt(req.OrderID, 10),
		Method:    string(req.Method),
		Amount:    req.Amount.Round(model.FiatPrecision),
		Currency:  req.Currency,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", fmt.Sprintf("order-%d-%s", req.OrderID, req.Method))
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		var data sessionResponse
		if err := json.Unmarshal(raw, &data); err != nil {
			return "", err
		}
		if data.ID == "" {
			return "", fmt.Errorf("processor returned empty session id")
		}
		return data.ID, nil
	default:
		raw, _ := io.ReadAll(resp.Body)
		g.logger.Error("processor session request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(raw)))
		return "", fmt.Errorf("processor error: %s", resp.Status)
	}
}

// LocalGateway issues deterministic handles when no processor API is configured.
// The storefront client then drives the processor checkout itself.
type LocalGateway struct{}

func (LocalGateway) CreateSession(_ context.Context, req SessionRequest) (string, error) {
	name := fmt.Sprintf("%d:%s", req.OrderID, req.Method)
	return uuid.NewSHA1(sessionNamespace, []byte(name)).String(), nil
}
