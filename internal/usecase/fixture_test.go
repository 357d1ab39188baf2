package usecase

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/model"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fixture struct {
	store     *testhelpers.MemoryStore
	rates     *testhelpers.RateProviderStub
	sessions  *testhelpers.SessionGatewayStub
	notifier  *testhelpers.NotifierRecorder
	addresses testhelpers.AddressDeriverStub

	orders    *OrderUseCase
	ledger    *LedgerUseCase
	payments  *PaymentUseCase
	reconcile *ReconcileUseCase
}

func newFixture(t *testing.T, configure func(*config.Config)) *fixture {
	t.Helper()

	cfg := &config.Config{
		ConfirmationThreshold: 6,
		FiatCurrency:          "usd",
		ZelleRecipient:        "pay@storefront.example",
		AmountTolerance:       decimal.Zero,
	}
	if configure != nil {
		configure(cfg)
	}

	f := &fixture{
		store:    testhelpers.NewMemoryStore(),
		rates:    &testhelpers.RateProviderStub{Rate: decimal.NewFromInt(50000)},
		sessions: &testhelpers.SessionGatewayStub{},
		notifier: &testhelpers.NotifierRecorder{},
	}
	logger := testLogger()
	f.orders = NewOrderUseCase(f.store.Orders(), logger)
	f.ledger = NewLedgerUseCase(f.store.Payments())
	f.payments = NewPaymentUseCase(cfg, f.store.Orders(), &f.addresses, f.rates, f.sessions, logger)
	f.reconcile = NewReconcileUseCase(cfg, f.store.Orders(), f.payments, f.notifier, logger)
	return f
}

// pendingOrder stores a pending order with the given id and total.
func (f *fixture) pendingOrder(id int64, total string) model.Order {
	return f.store.PutOrder(model.Order{
		ID:            id,
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		TotalAmount:   decimal.RequireFromString(total),
		Status:        model.OrderStatusPending,
	})
}

func (f *fixture) mustOrder(t *testing.T, id int64) model.Order {
	t.Helper()
	order, ok := f.store.Order(id)
	if !ok {
		t.Fatalf("order %d not stored", id)
	}
	return order
}

func (f *fixture) mustRecord(t *testing.T, order model.Order) model.PaymentRecord {
	t.Helper()
	if order.PaymentRecordID == nil {
		t.Fatalf("order %d has no payment record", order.ID)
	}
	record, ok := f.store.Record(*order.PaymentRecordID)
	if !ok {
		t.Fatalf("record %d not stored", *order.PaymentRecordID)
	}
	return record
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
