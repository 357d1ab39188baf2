package app

import (
	"context"
	"errors"
	"time"

	"github.com/polkiloo/storefront/internal/adapter/explorer"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/usecase"
)

// ErrExplorerDisabled is returned by address lookups when no explorer is configured.
var ErrExplorerDisabled = errors.New("block explorer is not configured")

// HealthChecker reports storage connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StorefrontFacade is the single entry point handlers and workers use.
type StorefrontFacade struct {
	auth      *usecase.AuthUseCase
	orders    *usecase.OrderUseCase
	catalog   *usecase.CatalogUseCase
	ledger    *usecase.LedgerUseCase
	payments  *usecase.PaymentUseCase
	reconcile *usecase.ReconcileUseCase
	explorer  explorer.Client
	health    HealthChecker
}

// FacadeDeps groups everything the facade delegates to.
type FacadeDeps struct {
	Auth      *usecase.AuthUseCase
	Orders    *usecase.OrderUseCase
	Catalog   *usecase.CatalogUseCase
	Ledger    *usecase.LedgerUseCase
	Payments  *usecase.PaymentUseCase
	Reconcile *usecase.ReconcileUseCase
	// Explorer may be nil.
	Explorer explorer.Client
	Health   HealthChecker
}

func NewStorefrontFacade(d FacadeDeps) *StorefrontFacade {
	return &StorefrontFacade{
		auth:      d.Auth,
		orders:    d.Orders,
		catalog:   d.Catalog,
		ledger:    d.Ledger,
		payments:  d.Payments,
		reconcile: d.Reconcile,
		explorer:  d.Explorer,
		health:    d.Health,
	}
}

func (f *StorefrontFacade) Authenticate(ctx context.Context, username, password string) (string, error) {
	return f.auth.Authenticate(ctx, username, password)
}

func (f *StorefrontFacade) ParseToken(token string) (string, error) {
	return f.auth.ParseToken(token)
}

func (f *StorefrontFacade) Products(ctx context.Context) ([]model.Product, error) {
	return f.catalog.Products(ctx)
}

func (f *StorefrontFacade) AddProduct(ctx context.Context, product model.Product) (*model.Product, error) {
	return f.catalog.AddProduct(ctx, product)
}

func (f *StorefrontFacade) PlaceOrder(ctx context.Context, draft model.OrderDraft) (*model.Order, error) {
	return f.orders.Place(ctx, draft)
}

func (f *StorefrontFacade) Order(ctx context.Context, id int64) (*model.Order, error) {
	return f.orders.Get(ctx, id)
}

func (f *StorefrontFacade) Orders(ctx context.Context) ([]model.Order, error) {
	return f.orders.List(ctx)
}

func (f *StorefrontFacade) SetOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	return f.orders.SetStatus(ctx, id, status)
}

func (f *StorefrontFacade) CancelStale(ctx context.Context, ttl time.Duration, limit int) (int, error) {
	return f.orders.CancelStale(ctx, ttl, limit)
}

func (f *StorefrontFacade) AwaitingOnChain(ctx context.Context, afterID int64, limit int) ([]model.Order, error) {
	return f.orders.AwaitingOnChain(ctx, afterID, limit)
}

func (f *StorefrontFacade) DerivePayment(ctx context.Context, orderID int64, method string) (*model.Order, *model.PaymentTarget, error) {
	return f.payments.Derive(ctx, orderID, method)
}

func (f *StorefrontFacade) ConfirmManual(ctx context.Context, confirmation model.ManualConfirmation) (*model.Order, model.Outcome, error) {
	return f.reconcile.ConfirmManual(ctx, confirmation)
}

func (f *StorefrontFacade) ApplyOnChain(ctx context.Context, confirmation model.OnChainConfirmation) (model.Outcome, error) {
	return f.reconcile.ApplyOnChain(ctx, confirmation)
}

func (f *StorefrontFacade) ApplyCapture(ctx context.Context, capture model.CaptureResult) (model.Outcome, error) {
	return f.reconcile.ApplyCapture(ctx, capture)
}

func (f *StorefrontFacade) AddressActivity(ctx context.Context, address string) (*explorer.Activity, error) {
	if f.explorer == nil {
		return nil, ErrExplorerDisabled
	}
	return f.explorer.AddressActivity(ctx, address)
}

func (f *StorefrontFacade) RecordPayment(ctx context.Context, in model.PaymentDraft) (*model.PaymentRecord, error) {
	return f.ledger.Record(ctx, in)
}

func (f *StorefrontFacade) Payment(ctx context.Context, id int64) (*model.PaymentRecord, error) {
	return f.ledger.Get(ctx, id)
}

func (f *StorefrontFacade) Payments(ctx context.Context, orderID *int64) ([]model.PaymentRecord, error) {
	return f.ledger.List(ctx, orderID)
}

func (f *StorefrontFacade) UpdatePaymentStatus(ctx context.Context, id int64, status string) (*model.PaymentRecord, error) {
	return f.ledger.UpdateStatus(ctx, id, status)
}

func (f *StorefrontFacade) Ping(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health.HealthCheck(ctx)
}
