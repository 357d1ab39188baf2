package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/adapter/explorer"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// StorefrontFacadeStub provides controllable behaviour for HTTP endpoints.
// Every nil function falls back to a small successful default.
type StorefrontFacadeStub struct {
	AuthenticateFn func(context.Context, string, string) (string, error)
	ParseTokenFn   func(string) (string, error)

	ProductsFn   func(context.Context) ([]model.Product, error)
	AddProductFn func(context.Context, model.Product) (*model.Product, error)

	PlaceOrderFn     func(context.Context, model.OrderDraft) (*model.Order, error)
	OrderFn          func(context.Context, int64) (*model.Order, error)
	OrdersFn         func(context.Context) ([]model.Order, error)
	SetOrderStatusFn func(context.Context, int64, string) (*model.Order, error)

	DerivePaymentFn func(context.Context, int64, string) (*model.Order, *model.PaymentTarget, error)
	ConfirmManualFn func(context.Context, model.ManualConfirmation) (*model.Order, model.Outcome, error)
	ApplyOnChainFn  func(context.Context, model.OnChainConfirmation) (model.Outcome, error)
	ApplyCaptureFn  func(context.Context, model.CaptureResult) (model.Outcome, error)

	RecordPaymentFn       func(context.Context, model.PaymentDraft) (*model.PaymentRecord, error)
	PaymentFn             func(context.Context, int64) (*model.PaymentRecord, error)
	PaymentsFn            func(context.Context, *int64) ([]model.PaymentRecord, error)
	UpdatePaymentStatusFn func(context.Context, int64, string) (*model.PaymentRecord, error)

	PingFn func(context.Context) error
}

// Authenticate returns a fixed token by default.
func (s StorefrontFacadeStub) Authenticate(ctx context.Context, username, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, username, password)
	}
	return "token", nil
}

// ParseToken resolves every token to "admin" by default.
func (s StorefrontFacadeStub) ParseToken(token string) (string, error) {
	if s.ParseTokenFn != nil {
		return s.ParseTokenFn(token)
	}
	return "admin", nil
}

func (s StorefrontFacadeStub) Products(ctx context.Context) ([]model.Product, error) {
	if s.ProductsFn != nil {
		return s.ProductsFn(ctx)
	}
	return []model.Product{{ID: 1, Name: "Mug", Price: decimal.RequireFromString("12.50"), Quantity: 3}}, nil
}

func (s StorefrontFacadeStub) AddProduct(ctx context.Context, product model.Product) (*model.Product, error) {
	if s.AddProductFn != nil {
		return s.AddProductFn(ctx, product)
	}
	product.ID = 1
	return &product, nil
}

func (s StorefrontFacadeStub) PlaceOrder(ctx context.Context, draft model.OrderDraft) (*model.Order, error) {
	if s.PlaceOrderFn != nil {
		return s.PlaceOrderFn(ctx, draft)
	}
	return &model.Order{
		ID:            1,
		CustomerName:  draft.CustomerName,
		CustomerEmail: draft.CustomerEmail,
		TotalAmount:   decimal.RequireFromString("100"),
		Status:        model.OrderStatusPending,
	}, nil
}

func (s StorefrontFacadeStub) Order(ctx context.Context, id int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, id)
	}
	return &model.Order{ID: id, TotalAmount: decimal.RequireFromString("100"), Status: model.OrderStatusPending}, nil
}

func (s StorefrontFacadeStub) Orders(ctx context.Context) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx)
	}
	return []model.Order{{ID: 1, Status: model.OrderStatusPending}}, nil
}

func (s StorefrontFacadeStub) SetOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	if s.SetOrderStatusFn != nil {
		return s.SetOrderStatusFn(ctx, id, status)
	}
	parsed, _ := model.ParseOrderStatus(status)
	return &model.Order{ID: id, Status: parsed}, nil
}

// DerivePayment returns an awaiting order with a target for the method.
func (s StorefrontFacadeStub) DerivePayment(ctx context.Context, orderID int64, method string) (*model.Order, *model.PaymentTarget, error) {
	if s.DerivePaymentFn != nil {
		return s.DerivePaymentFn(ctx, orderID, method)
	}
	m, _ := model.ParsePaymentMethod(method)
	target := &model.PaymentTarget{OrderID: orderID, Method: m, PaymentRecordID: 1}
	switch m.Channel() {
	case model.ChannelOnChain:
		target.Address = "addr"
		target.ExpectedAmount = decimal.RequireFromString("0.002")
	case model.ChannelProcessor:
		target.SessionHandle = "sess"
	case model.ChannelManual:
		target.Recipient = "pay@storefront.example"
		target.Memo = model.ManualMemo(orderID)
	}
	status := model.AwaitingStatus(m.Channel())
	return &model.Order{ID: orderID, Status: status}, target, nil
}

func (s StorefrontFacadeStub) ConfirmManual(ctx context.Context, confirmation model.ManualConfirmation) (*model.Order, model.Outcome, error) {
	if s.ConfirmManualFn != nil {
		return s.ConfirmManualFn(ctx, confirmation)
	}
	return &model.Order{ID: confirmation.OrderID, Status: model.OrderStatusPaidManual}, model.OutcomeApplied, nil
}

func (s StorefrontFacadeStub) ApplyOnChain(ctx context.Context, confirmation model.OnChainConfirmation) (model.Outcome, error) {
	if s.ApplyOnChainFn != nil {
		return s.ApplyOnChainFn(ctx, confirmation)
	}
	return model.OutcomeApplied, nil
}

func (s StorefrontFacadeStub) ApplyCapture(ctx context.Context, capture model.CaptureResult) (model.Outcome, error) {
	if s.ApplyCaptureFn != nil {
		return s.ApplyCaptureFn(ctx, capture)
	}
	return model.OutcomeApplied, nil
}

func (s StorefrontFacadeStub) RecordPayment(ctx context.Context, in model.PaymentDraft) (*model.PaymentRecord, error) {
	if s.RecordPaymentFn != nil {
		return s.RecordPaymentFn(ctx, in)
	}
	method, _ := model.ParsePaymentMethod(in.Method)
	return &model.PaymentRecord{ID: 1, Method: method, Amount: in.Amount, Status: model.PaymentStatusPending}, nil
}

func (s StorefrontFacadeStub) Payment(ctx context.Context, id int64) (*model.PaymentRecord, error) {
	if s.PaymentFn != nil {
		return s.PaymentFn(ctx, id)
	}
	return &model.PaymentRecord{ID: id, Method: model.PaymentMethodStandard, Amount: decimal.RequireFromString("10"), Status: model.PaymentStatusPending}, nil
}

func (s StorefrontFacadeStub) Payments(ctx context.Context, orderID *int64) ([]model.PaymentRecord, error) {
	if s.PaymentsFn != nil {
		return s.PaymentsFn(ctx, orderID)
	}
	return []model.PaymentRecord{{ID: 1, Method: model.PaymentMethodStandard, Status: model.PaymentStatusPending}}, nil
}

func (s StorefrontFacadeStub) UpdatePaymentStatus(ctx context.Context, id int64, status string) (*model.PaymentRecord, error) {
	if s.UpdatePaymentStatusFn != nil {
		return s.UpdatePaymentStatusFn(ctx, id, status)
	}
	parsed, _ := model.ParsePaymentStatus(status)
	return &model.PaymentRecord{ID: id, Method: model.PaymentMethodStandard, Status: parsed}, nil
}

func (s StorefrontFacadeStub) Ping(ctx context.Context) error {
	if s.PingFn != nil {
		return s.PingFn(ctx)
	}
	return nil
}

// WatcherFacadeStub mimics the watcher's view of the application.
type WatcherFacadeStub struct {
	Orders     [][]model.Order
	OrdersFn   func(ctx context.Context, afterID int64, limit int) ([]model.Order, error)
	ActivityFn func(context.Context, string) (*explorer.Activity, error)
	ApplyFn    func(context.Context, model.OnChainConfirmation) (model.Outcome, error)
	Applied    []model.OnChainConfirmation

	mu              sync.Mutex
	ordersCallCount int32
	lookups         int32
}

// AwaitingOnChain returns batches from configured queue.
func (s *WatcherFacadeStub) AwaitingOnChain(ctx context.Context, afterID int64, limit int) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, afterID, limit)
	}
	call := atomic.AddInt32(&s.ordersCallCount, 1)
	if int(call) <= len(s.Orders) {
		return s.Orders[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// AddressActivity returns configured explorer data.
func (s *WatcherFacadeStub) AddressActivity(ctx context.Context, address string) (*explorer.Activity, error) {
	atomic.AddInt32(&s.lookups, 1)
	if s.ActivityFn != nil {
		return s.ActivityFn(ctx, address)
	}
	return &explorer.Activity{
		Address:       address,
		Received:      decimal.RequireFromString("0.002"),
		TransactionID: "tx-" + address,
		Confirmations: 6,
	}, nil
}

// ApplyOnChain records confirmations fed by the watcher.
func (s *WatcherFacadeStub) ApplyOnChain(ctx context.Context, confirmation model.OnChainConfirmation) (model.Outcome, error) {
	if s.ApplyFn != nil {
		return s.ApplyFn(ctx, confirmation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Applied = append(s.Applied, confirmation)
	return model.OutcomeApplied, nil
}

// AppliedSnapshot returns a copy of recorded confirmations.
func (s *WatcherFacadeStub) AppliedSnapshot() []model.OnChainConfirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OnChainConfirmation(nil), s.Applied...)
}

// Lookups reports how many explorer calls were made.
func (s *WatcherFacadeStub) Lookups() int {
	return int(atomic.LoadInt32(&s.lookups))
}

// SweeperStub counts stale order sweeps.
type SweeperStub struct {
	Cancelled int
	Err       error

	calls int32
	ttl   atomic.Int64
}

// CancelStale records the call and returns configured result.
func (s *SweeperStub) CancelStale(ctx context.Context, ttl time.Duration, limit int) (int, error) {
	atomic.AddInt32(&s.calls, 1)
	s.ttl.Store(int64(ttl))
	return s.Cancelled, s.Err
}

// Calls reports how many sweeps ran.
func (s *SweeperStub) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

// LastTTL returns the ttl passed to the latest sweep.
func (s *SweeperStub) LastTTL() time.Duration {
	return time.Duration(s.ttl.Load())
}
