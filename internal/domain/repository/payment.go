package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// PaymentRepository stores the payment ledger.
type PaymentRepository interface {
	Create(ctx context.Context, record model.PaymentRecord) (*model.PaymentRecord, error)
	GetByID(ctx context.Context, id int64) (*model.PaymentRecord, error)
	List(ctx context.Context, orderID *int64) ([]model.PaymentRecord, error)
	// UpdateStatus only moves records that are still pending.
	UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.PaymentRecord, error)
}
