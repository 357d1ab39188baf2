package handlers

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	ParseToken(token string) (string, error)
}

// CatalogFacade exposes the product catalogue.
type CatalogFacade interface {
	Products(ctx context.Context) ([]model.Product, error)
	AddProduct(ctx context.Context, product model.Product) (*model.Product, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	PlaceOrder(ctx context.Context, draft model.OrderDraft) (*model.Order, error)
	Order(ctx context.Context, id int64) (*model.Order, error)
	Orders(ctx context.Context) ([]model.Order, error)
	SetOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error)
}

// PaymentFacade issues payment targets and accepts payment signals.
type PaymentFacade interface {
	DerivePayment(ctx context.Context, orderID int64, method string) (*model.Order, *model.PaymentTarget, error)
	ConfirmManual(ctx context.Context, confirmation model.ManualConfirmation) (*model.Order, model.Outcome, error)
	ApplyOnChain(ctx context.Context, confirmation model.OnChainConfirmation) (model.Outcome, error)
	ApplyCapture(ctx context.Context, capture model.CaptureResult) (model.Outcome, error)
}

// LedgerFacade provides payment record operations.
type LedgerFacade interface {
	RecordPayment(ctx context.Context, in model.PaymentDraft) (*model.PaymentRecord, error)
	Payment(ctx context.Context, id int64) (*model.PaymentRecord, error)
	Payments(ctx context.Context, orderID *int64) ([]model.PaymentRecord, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status string) (*model.PaymentRecord, error)
}

// HealthFacade reports dependency health.
type HealthFacade interface {
	Ping(ctx context.Context) error
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	AuthFacade
	CatalogFacade
	OrderFacade
	PaymentFacade
	LedgerFacade
	HealthFacade
}
