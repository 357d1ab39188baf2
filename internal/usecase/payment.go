package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/config"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// AddressDeriver derives the receiving address reserved for an order.
type AddressDeriver interface {
	AddressFor(orderID int64) (string, error)
}

// RateProvider returns the fiat price of one bitcoin.
type RateProvider interface {
	BTCRate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// SessionGateway opens checkout sessions with the card/wallet processor.
type SessionGateway interface {
	CreateSession(ctx context.Context, req model.SessionRequest) (string, error)
}

// PaymentUseCase issues payment targets for pending orders.
type PaymentUseCase struct {
	orders    repository.OrderRepository
	addresses AddressDeriver
	rates     RateProvider
	sessions  SessionGateway
	logger    *slog.Logger

	currency       string
	zelleRecipient string
}

// NewPaymentUseCase constructs PaymentUseCase.
func NewPaymentUseCase(
	cfg *config.Config,
	orders repository.OrderRepository,
	addresses AddressDeriver,
	rates RateProvider,
	sessions SessionGateway,
	logger *slog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		orders:         orders,
		addresses:      addresses,
		rates:          rates,
		sessions:       sessions,
		logger:         logger,
		currency:       strings.ToUpper(cfg.FiatCurrency),
		zelleRecipient: cfg.ZelleRecipient,
	}
}

// Derive moves a pending order to the awaiting state of method and returns its payment target.
// An order already awaiting the same method gets its stored target back unchanged.
func (u *PaymentUseCase) Derive(ctx context.Context, orderID int64, rawMethod string) (*model.Order, *model.PaymentTarget, error) {
	method, ok := model.ParsePaymentMethod(rawMethod)
	if !ok {
		return nil, nil, domainErrors.ErrUnsupportedMethod
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status != model.OrderStatusPending {
		return existingTarget(order, method)
	}

	attachment, err := u.prepare(ctx, order, method)
	if err != nil {
		return nil, nil, err
	}

	applied, err := u.orders.AttachTarget(ctx, attachment)
	if err != nil {
		return nil, nil, err
	}

	order, err = u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !applied {
		// another request moved the order first
		return existingTarget(order, method)
	}

	u.logger.Info("payment target issued",
		slog.Int64("order_id", orderID),
		slog.String("method", string(method)),
		slog.String("status", string(order.Status)),
	)
	return order, model.TargetFromOrder(order), nil
}

func existingTarget(order *model.Order, method model.PaymentMethod) (*model.Order, *model.PaymentTarget, error) {
	if order.Status == model.AwaitingStatus(method.Channel()) && order.PaymentMethod != nil && *order.PaymentMethod == method {
		return order, model.TargetFromOrder(order), nil
	}
	return nil, nil, domainErrors.ErrInvalidState
}

func (u *PaymentUseCase) prepare(ctx context.Context, order *model.Order, method model.PaymentMethod) (model.TargetAttachment, error) {
	total := order.TotalAmount.Round(model.FiatPrecision)
	if !total.IsPositive() {
		return model.TargetAttachment{}, domainErrors.ErrInvalidAmount
	}

	description := model.ManualMemo(order.ID)
	attachment := model.TargetAttachment{
		OrderID: order.ID,
		From:    model.OrderStatusPending,
		To:      model.AwaitingStatus(method.Channel()),
		Method:  method,
		Record: model.PaymentRecord{
			Method:      method,
			Description: &description,
			OrderID:     &order.ID,
			PayerName:   &order.CustomerName,
			PayerEmail:  &order.CustomerEmail,
		},
	}

	switch method.Channel() {
	case model.ChannelOnChain:
		rate, err := u.rates.BTCRate(ctx, u.currency)
		if err != nil {
			u.logger.Warn("exchange rate lookup failed",
				slog.Int64("order_id", order.ID),
				slog.String("error", err.Error()),
			)
			return model.TargetAttachment{}, fmt.Errorf("%w: %v", domainErrors.ErrRateUnavailable, err)
		}
		if !rate.IsPositive() {
			return model.TargetAttachment{}, domainErrors.ErrRateUnavailable
		}

		expected := total.DivRound(rate, model.OnChainPrecision)
		if !expected.IsPositive() {
			return model.TargetAttachment{}, domainErrors.ErrInvalidAmount
		}

		address, err := u.addresses.AddressFor(order.ID)
		if err != nil {
			return model.TargetAttachment{}, err
		}

		attachment.ReceivingAddress = &address
		attachment.ExpectedAmount = &expected
		attachment.Record.Amount = expected

	case model.ChannelProcessor:
		handle, err := u.sessions.CreateSession(ctx, model.SessionRequest{
			OrderID:  order.ID,
			Method:   method,
			Amount:   total,
			Currency: u.currency,
		})
		if err != nil {
			return model.TargetAttachment{}, errors.Join(domainErrors.ErrGatewayUnavailable, err)
		}

		attachment.SessionHandle = &handle
		attachment.ExpectedAmount = &total
		attachment.Record.Amount = total

	case model.ChannelManual:
		recipient := u.zelleRecipient
		memo := model.ManualMemo(order.ID)

		attachment.ReceivingAddress = &recipient
		attachment.SessionHandle = &memo
		attachment.ExpectedAmount = &total
		attachment.Record.Amount = total
	}

	return attachment, nil
}
