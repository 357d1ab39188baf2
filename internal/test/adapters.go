package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// AddressDeriverStub derives predictable addresses.
type AddressDeriverStub struct {
	Err error
}

// AddressFor returns "addr-<id>" unless Err is set.
func (s AddressDeriverStub) AddressFor(orderID int64) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return fmt.Sprintf("addr-%d", orderID), nil
}

// RateProviderStub returns a fixed rate and counts lookups.
type RateProviderStub struct {
	Rate  decimal.Decimal
	Err   error
	mu    sync.Mutex
	calls int
}

// BTCRate returns configured rate or error.
func (s *RateProviderStub) BTCRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.Err != nil {
		return decimal.Zero, s.Err
	}
	return s.Rate, nil
}

// Calls reports how many lookups were made.
func (s *RateProviderStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// SessionGatewayStub issues sessions named after the order and method.
type SessionGatewayStub struct {
	Err      error
	Requests []model.SessionRequest
}

// CreateSession records request and returns "sess-<id>-<method>".
func (s *SessionGatewayStub) CreateSession(ctx context.Context, req model.SessionRequest) (string, error) {
	s.Requests = append(s.Requests, req)
	if s.Err != nil {
		return "", s.Err
	}
	return fmt.Sprintf("sess-%d-%s", req.OrderID, req.Method), nil
}

// NotifierRecorder keeps every published event.
type NotifierRecorder struct {
	Err    error
	mu     sync.Mutex
	events []model.PaymentEvent
}

// Notify stores event and returns Err.
func (n *NotifierRecorder) Notify(ctx context.Context, event model.PaymentEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.Err
}

// Events returns published events in order.
func (n *NotifierRecorder) Events() []model.PaymentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.PaymentEvent(nil), n.events...)
}
