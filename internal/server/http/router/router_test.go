package router

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/pkg/signature"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/validation"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

func newEngine(facade handlers.StorefrontFacade, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := &config.Config{ClientPollInterval: 10 * time.Second}
	return Setup(facade, cfg, signature.NewVerifier(secret), validation.New(), logger)
}

func serve(engine *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupRoutes(t *testing.T) {
	engine := newEngine(testhelpers.StorefrontFacadeStub{}, "")
	bearer := map[string]string{"Authorization": "Bearer token"}

	cases := []struct {
		method  string
		path    string
		body    string
		headers map[string]string
		want    int
	}{
		{http.MethodGet, "/api/health", "", nil, http.StatusOK},
		{http.MethodPost, "/api/auth/login", `{"username":"admin","password":"pw"}`, nil, http.StatusOK},
		{http.MethodPost, "/api/orders", `{"customerName":"Ada","customerEmail":"ada@example.com","items":[{"productId":1,"quantity":1}]}`, nil, http.StatusCreated},
		{http.MethodGet, "/api/orders", "", bearer, http.StatusOK},
		{http.MethodGet, "/api/orders/42", "", nil, http.StatusOK},
		{http.MethodPut, "/api/orders/42/status", `{"status":"CANCELLED"}`, bearer, http.StatusOK},
		{http.MethodPost, "/api/orders/42/generate-bitcoin-payment", "", nil, http.StatusOK},
		{http.MethodPost, "/api/orders/42/payment-session", `{"method":"paypal"}`, nil, http.StatusOK},
		{http.MethodPost, "/api/orders/42/zelle-confirmation", `{"reference":"ZL-1"}`, nil, http.StatusOK},
		{http.MethodPost, "/api/orders/bitcoin-payment-webhook", `{"orderId":42,"transactionId":"t","amount":"0.002","confirmations":6}`, nil, http.StatusOK},
		{http.MethodPost, "/api/orders/processor-webhook", `{"orderId":42,"sessionId":"s","captureId":"c","status":"COMPLETED","amount":"1"}`, nil, http.StatusOK},
		{http.MethodPost, "/api/PaymentRecords", `{"paymentType":"paypal","amount":"1.50"}`, nil, http.StatusCreated},
		{http.MethodGet, "/api/PaymentRecords", "", bearer, http.StatusOK},
		{http.MethodGet, "/api/PaymentRecords/1", "", nil, http.StatusOK},
		{http.MethodPut, "/api/PaymentRecords/1", `{"status":"completed"}`, nil, http.StatusOK},
		{http.MethodGet, "/api/products", "", nil, http.StatusOK},
		{http.MethodPost, "/api/products", `{"name":"Mug","price":"1","quantity":1}`, bearer, http.StatusCreated},
	}
	for _, tc := range cases {
		var body []byte
		if tc.body != "" {
			body = []byte(tc.body)
		}
		resp := serve(engine, tc.method, tc.path, body, tc.headers)
		if resp.Code != tc.want {
			t.Errorf("%s %s: expected %d, got %d (%s)", tc.method, tc.path, tc.want, resp.Code, resp.Body.String())
		}
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	facade := testhelpers.StorefrontFacadeStub{ParseTokenFn: func(string) (string, error) {
		return "", pkgAuth.ErrInvalidToken
	}}
	engine := newEngine(facade, "")

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/orders", ""},
		{http.MethodPut, "/api/orders/1/status", `{"status":"CANCELLED"}`},
		{http.MethodGet, "/api/PaymentRecords", ""},
		{http.MethodPost, "/api/products", `{"name":"Mug","price":"1","quantity":1}`},
	} {
		resp := serve(engine, tc.method, tc.path, []byte(tc.body), nil)
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected 401, got %d", tc.method, tc.path, resp.Code)
		}
		resp = serve(engine, tc.method, tc.path, []byte(tc.body), map[string]string{"Authorization": "Bearer forged"})
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with forged token: expected 401, got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestWebhookSignatureThroughRouter(t *testing.T) {
	applied := 0
	facade := testhelpers.StorefrontFacadeStub{ApplyOnChainFn: func(context.Context, model.OnChainConfirmation) (model.Outcome, error) {
		applied++
		return model.OutcomeApplied, nil
	}}
	engine := newEngine(facade, "secret")
	body := []byte(`{"orderId":42,"transactionId":"t","amount":"0.002","confirmations":6}`)

	resp := serve(engine, http.MethodPost, "/api/orders/bitcoin-payment-webhook", body, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without signature, got %d", resp.Code)
	}

	sig := signature.NewVerifier("secret").Sign(body)
	resp = serve(engine, http.MethodPost, "/api/orders/bitcoin-payment-webhook", body, map[string]string{signature.HeaderName: sig})
	if resp.Code != http.StatusOK || applied != 1 {
		t.Fatalf("expected signed webhook to be applied, got %d applied=%d", resp.Code, applied)
	}
}

func TestWebhookRejectsEncodedBody(t *testing.T) {
	applied := 0
	facade := testhelpers.StorefrontFacadeStub{ApplyOnChainFn: func(context.Context, model.OnChainConfirmation) (model.Outcome, error) {
		applied++
		return model.OutcomeApplied, nil
	}}
	engine := newEngine(facade, "secret")
	body := []byte(`{"orderId":42,"transactionId":"t","amount":"0.002","confirmations":6}`)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	// Signed over the plain JSON, sent gzipped: the bytes on the wire do not match.
	sig := signature.NewVerifier("secret").Sign(body)
	resp := serve(engine, http.MethodPost, "/api/orders/bitcoin-payment-webhook", buf.Bytes(), map[string]string{
		signature.HeaderName: sig,
		"Content-Encoding":   "gzip",
	})
	if resp.Code != http.StatusUnsupportedMediaType || applied != 0 {
		t.Fatalf("expected 415 without intake, got %d applied=%d", resp.Code, applied)
	}

	resp = serve(engine, http.MethodPost, "/api/orders/processor-webhook", buf.Bytes(), map[string]string{"Content-Encoding": "deflate"})
	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 for encoded capture webhook, got %d", resp.Code)
	}

	resp = serve(engine, http.MethodPost, "/api/orders/bitcoin-payment-webhook", body, map[string]string{
		signature.HeaderName: sig,
		"Content-Encoding":   "identity",
	})
	if resp.Code != http.StatusOK || applied != 1 {
		t.Fatalf("expected identity webhook to be applied, got %d applied=%d", resp.Code, applied)
	}
}

func TestOrderCreateAcceptsGzipBody(t *testing.T) {
	var got model.OrderDraft
	facade := testhelpers.StorefrontFacadeStub{PlaceOrderFn: func(_ context.Context, d model.OrderDraft) (*model.Order, error) {
		got = d
		return &model.Order{ID: 1, Status: model.OrderStatusPending}, nil
	}}
	engine := newEngine(facade, "")

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"customerName":"Ada","customerEmail":"ada@example.com","items":[{"productId":1,"quantity":1}]}`))
	_ = zw.Close()

	resp := serve(engine, http.MethodPost, "/api/orders", buf.Bytes(), map[string]string{"Content-Encoding": "gzip"})
	if resp.Code != http.StatusCreated || got.CustomerName != "Ada" {
		t.Fatalf("expected gzip order body to be decoded, got %d %+v", resp.Code, got)
	}
}

var _ handlers.StorefrontFacade = testhelpers.StorefrontFacadeStub{}
