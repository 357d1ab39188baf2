package usecase

import (
	"context"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// LedgerUseCase manages payment records. It never moves orders.
type LedgerUseCase struct {
	payments repository.PaymentRepository
}

// NewLedgerUseCase constructs LedgerUseCase.
func NewLedgerUseCase(payments repository.PaymentRepository) *LedgerUseCase {
	return &LedgerUseCase{payments: payments}
}

// Record validates input and stores a new entry, pending unless a status is given.
func (u *LedgerUseCase) Record(ctx context.Context, in model.PaymentDraft) (*model.PaymentRecord, error) {
	method, ok := model.ParsePaymentMethod(in.Method)
	if !ok {
		return nil, domainErrors.ErrUnsupportedMethod
	}
	if !method.ValidAmount(in.Amount) {
		return nil, domainErrors.ErrInvalidAmount
	}

	status := model.PaymentStatusPending
	if in.Status != "" {
		if status, ok = model.ParsePaymentStatus(in.Status); !ok {
			return nil, domainErrors.ErrUnknownStatus
		}
	}

	return u.payments.Create(ctx, model.PaymentRecord{
		Method:      method,
		Amount:      in.Amount,
		Description: in.Description,
		OrderID:     in.OrderID,
		PayerName:   in.PayerName,
		PayerEmail:  in.PayerEmail,
		Status:      status,
		IPAddress:   in.IPAddress,
	})
}

// UpdateStatus moves a pending entry to status. Repeating the current final status is a no-op.
func (u *LedgerUseCase) UpdateStatus(ctx context.Context, id int64, raw string) (*model.PaymentRecord, error) {
	status, ok := model.ParsePaymentStatus(raw)
	if !ok {
		return nil, domainErrors.ErrUnknownStatus
	}
	return u.payments.UpdateStatus(ctx, id, status)
}

// Get returns a single entry.
func (u *LedgerUseCase) Get(ctx context.Context, id int64) (*model.PaymentRecord, error) {
	return u.payments.GetByID(ctx, id)
}

// List returns entries newest first, optionally restricted to one order.
func (u *LedgerUseCase) List(ctx context.Context, orderID *int64) ([]model.PaymentRecord, error) {
	return u.payments.List(ctx, orderID)
}
