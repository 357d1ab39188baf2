package repository

import (
	"context"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	Create(ctx context.Context, draft model.OrderDraft) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	ListByStatus(ctx context.Context, status model.OrderStatus, updatedBefore time.Time, limit int) ([]model.Order, error)
	// ListAfter pages through orders in status by ascending id, starting after afterID.
	ListAfter(ctx context.Context, status model.OrderStatus, afterID int64, limit int) ([]model.Order, error)
	// AttachTarget reports false when the order no longer held attachment.From.
	AttachTarget(ctx context.Context, attachment model.TargetAttachment) (bool, error)
	// Transition reports false when the order no longer held change.From.
	Transition(ctx context.Context, change model.StatusChange) (bool, error)
}
