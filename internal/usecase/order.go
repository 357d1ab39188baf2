package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// OrderUseCase encapsulates order lifecycle logic outside of payment intake.
type OrderUseCase struct {
	orders repository.OrderRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{orders: orders, logger: logger, now: time.Now}
}

// Place reserves stock for the requested items and stores a pending order.
// Repeated lines for the same product are merged.
func (u *OrderUseCase) Place(ctx context.Context, draft model.OrderDraft) (*model.Order, error) {
	if len(draft.Items) == 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	merged := make([]model.DraftItem, 0, len(draft.Items))
	index := make(map[int64]int, len(draft.Items))
	for _, item := range draft.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			return nil, domainErrors.ErrInvalidAmount
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	draft.Items = merged

	order, err := u.orders.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	u.logger.Info("order placed",
		slog.Int64("order_id", order.ID),
		slog.String("total", order.TotalAmount.StringFixed(model.FiatPrecision)),
	)
	return order, nil
}

// Get returns the current state of an order.
func (u *OrderUseCase) Get(ctx context.Context, id int64) (*model.Order, error) {
	return u.orders.GetByID(ctx, id)
}

// List returns orders newest first.
func (u *OrderUseCase) List(ctx context.Context) ([]model.Order, error) {
	return u.orders.List(ctx)
}

// SetStatus is the administrative override. It applies against the observed status,
// so a concurrent change makes it fail with ErrInvalidState.
func (u *OrderUseCase) SetStatus(ctx context.Context, id int64, raw string) (*model.Order, error) {
	status, ok := model.ParseOrderStatus(raw)
	if !ok {
		return nil, domainErrors.ErrUnknownStatus
	}

	current, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	if current.Status == model.OrderStatusCancelled {
		return nil, domainErrors.ErrInvalidState
	}

	change := model.StatusChange{
		OrderID: id,
		From:    current.Status,
		To:      status,
		Restock: status == model.OrderStatusCancelled && !current.Status.IsPaid(),
	}
	if current.Status.IsAwaiting() && current.PaymentRecordID != nil {
		switch {
		case status.IsPaid():
			change.Settlement = &model.Settlement{RecordID: *current.PaymentRecordID, Status: model.PaymentStatusCompleted}
		case status == model.OrderStatusCancelled:
			change.Settlement = &model.Settlement{RecordID: *current.PaymentRecordID, Status: model.PaymentStatusFailed}
		}
	}

	applied, err := u.orders.Transition(ctx, change)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domainErrors.ErrInvalidState
	}

	u.logger.Warn("order status overridden",
		slog.Int64("order_id", id),
		slog.String("from", string(current.Status)),
		slog.String("to", string(status)),
	)
	return u.orders.GetByID(ctx, id)
}

// CancelStale cancels awaiting orders untouched for longer than ttl and returns their stock.
func (u *OrderUseCase) CancelStale(ctx context.Context, ttl time.Duration, limit int) (int, error) {
	cutoff := u.now().Add(-ttl)
	cancelled := 0

	for _, status := range []model.OrderStatus{
		model.OrderStatusAwaitingOnChain,
		model.OrderStatusAwaitingProcessor,
		model.OrderStatusAwaitingManual,
	} {
		orders, err := u.orders.ListByStatus(ctx, status, cutoff, limit)
		if err != nil {
			return cancelled, err
		}
		for _, order := range orders {
			next, _ := model.Next(order.Status, model.EventCancel)
			change := model.StatusChange{OrderID: order.ID, From: order.Status, To: next, Restock: true}
			if order.PaymentRecordID != nil {
				change.Settlement = &model.Settlement{RecordID: *order.PaymentRecordID, Status: model.PaymentStatusFailed}
			}
			applied, err := u.orders.Transition(ctx, change)
			if errors.Is(err, domainErrors.ErrStatusConflict) {
				u.logger.Warn("stale order left awaiting, payment record already settled",
					slog.Int64("order_id", order.ID),
				)
				continue
			}
			if err != nil {
				return cancelled, err
			}
			if !applied {
				continue
			}
			cancelled++
			u.logger.Info("stale order cancelled",
				slog.Int64("order_id", order.ID),
				slog.String("from", string(order.Status)),
				slog.Time("updated_at", order.UpdatedAt),
			)
		}
	}
	return cancelled, nil
}

// AwaitingOnChain returns up to limit on-chain orders with ids above afterID, in id order.
func (u *OrderUseCase) AwaitingOnChain(ctx context.Context, afterID int64, limit int) ([]model.Order, error) {
	return u.orders.ListAfter(ctx, model.OrderStatusAwaitingOnChain, afterID, limit)
}
