package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/config"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

const notifyTimeout = 5 * time.Second

// Notifier publishes events about settled orders.
type Notifier interface {
	Notify(ctx context.Context, event model.PaymentEvent) error
}

// ReconcileUseCase turns payment signals into order and ledger transitions.
// Every signal is applied at most once; replays and stale signals are reported as outcomes, not errors.
type ReconcileUseCase struct {
	orders    repository.OrderRepository
	derive    *PaymentUseCase
	notifier  Notifier
	policy    Policy
	threshold int
	logger    *slog.Logger
	now       func() time.Time
}

// NewReconcileUseCase constructs ReconcileUseCase.
func NewReconcileUseCase(
	cfg *config.Config,
	orders repository.OrderRepository,
	derive *PaymentUseCase,
	notifier Notifier,
	logger *slog.Logger,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		orders:   orders,
		derive:   derive,
		notifier: notifier,
		policy: Policy{
			Tolerance:      cfg.AmountTolerance,
			SettleMismatch: cfg.SettleMismatch,
		},
		threshold: cfg.ConfirmationThreshold,
		logger:    logger,
		now:       time.Now,
	}
}

// ApplyOnChain settles an awaiting on-chain order once the payment is deep enough and matches the frozen amount.
func (u *ReconcileUseCase) ApplyOnChain(ctx context.Context, c model.OnChainConfirmation) (model.Outcome, error) {
	log := u.logger.With(
		slog.Int64("order_id", c.OrderID),
		slog.String("transaction_id", c.TransactionID),
		slog.Int("confirmations", c.Confirmations),
	)

	order, err := u.orders.GetByID(ctx, c.OrderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return u.report(log, model.OutcomeNotFound), nil
		}
		return "", err
	}

	switch order.Status {
	case model.OrderStatusAwaitingOnChain:
	case model.OrderStatusPaidOnChain, model.OrderStatusUnderpaid, model.OrderStatusOverpaid:
		return u.report(log, model.OutcomeAlreadyApplied), nil
	default:
		return u.report(log.With(slog.String("status", string(order.Status))), model.OutcomeWrongState), nil
	}

	if c.Confirmations < u.threshold {
		return u.report(log.With(slog.Int("threshold", u.threshold)), model.OutcomeBelowThreshold), nil
	}

	expected := decimal.Zero
	if order.ExpectedAmount != nil {
		expected = *order.ExpectedAmount
	}

	event, outcome, ledger := model.EventOnChainConfirmed, model.OutcomeApplied, model.PaymentStatusCompleted
	switch verdict := u.policy.Classify(expected, c.Amount); verdict {
	case VerdictUnderpaid, VerdictOverpaid:
		log = log.With(
			slog.String("expected", expected.StringFixed(model.OnChainPrecision)),
			slog.String("received", c.Amount.StringFixed(model.OnChainPrecision)),
			slog.String("verdict", string(verdict)),
		)
		if !u.policy.SettleMismatch {
			return u.report(log, model.OutcomeAmountMismatch), nil
		}
		if verdict == VerdictUnderpaid {
			event, outcome, ledger = model.EventOnChainUnderpaid, model.OutcomeUnderpaid, model.PaymentStatusFailed
		} else {
			event, outcome = model.EventOnChainOverpaid, model.OutcomeOverpaid
		}
	}

	next, _ := model.Next(order.Status, event)
	change := model.StatusChange{OrderID: order.ID, From: order.Status, To: next}
	if order.PaymentRecordID != nil {
		reference := c.TransactionID
		change.Settlement = &model.Settlement{RecordID: *order.PaymentRecordID, Status: ledger, Reference: &reference}
	}

	applied, err := u.orders.Transition(ctx, change)
	if errors.Is(err, domainErrors.ErrStatusConflict) {
		return u.report(log, model.OutcomeLedgerConflict), nil
	}
	if err != nil {
		return "", err
	}
	if !applied {
		return u.report(log, model.OutcomeAlreadyApplied), nil
	}

	u.report(log.With(slog.String("status", string(next))), outcome)
	u.publish(ctx, order, next, c.Amount, c.TransactionID, c.Confirmations)
	return outcome, nil
}

// ApplyCapture records a processor result for the session issued to the order.
// Captured amounts are authoritative; a difference from the order total is only logged.
// A declined capture changes nothing: the order keeps waiting on the same session.
func (u *ReconcileUseCase) ApplyCapture(ctx context.Context, c model.CaptureResult) (model.Outcome, error) {
	log := u.logger.With(
		slog.Int64("order_id", c.OrderID),
		slog.String("capture_id", c.CaptureID),
		slog.String("capture_status", string(c.Status)),
	)

	order, err := u.orders.GetByID(ctx, c.OrderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return u.report(log, model.OutcomeNotFound), nil
		}
		return "", err
	}

	if order.Status != model.OrderStatusAwaitingProcessor && order.Status != model.OrderStatusPaidProcessor {
		return u.report(log.With(slog.String("status", string(order.Status))), model.OutcomeWrongState), nil
	}
	if order.SessionHandle == nil || *order.SessionHandle != c.SessionID {
		return u.report(log, model.OutcomeSessionMismatch), nil
	}
	if order.Status == model.OrderStatusPaidProcessor {
		return u.report(log, model.OutcomeAlreadyApplied), nil
	}

	switch {
	case c.Status == model.CaptureStatusCompleted:
		if order.ExpectedAmount != nil && !c.Amount.IsZero() && !c.Amount.Equal(*order.ExpectedAmount) {
			log.Warn("captured amount differs from order total",
				slog.String("expected", order.ExpectedAmount.StringFixed(model.FiatPrecision)),
				slog.String("captured", c.Amount.StringFixed(model.FiatPrecision)),
			)
		}

		next, _ := model.Next(order.Status, model.EventCaptured)
		change := model.StatusChange{OrderID: order.ID, From: order.Status, To: next}
		if order.PaymentRecordID != nil {
			reference := c.CaptureID
			change.Settlement = &model.Settlement{RecordID: *order.PaymentRecordID, Status: model.PaymentStatusCompleted, Reference: &reference}
		}

		applied, err := u.orders.Transition(ctx, change)
		if errors.Is(err, domainErrors.ErrStatusConflict) {
			return u.report(log, model.OutcomeLedgerConflict), nil
		}
		if err != nil {
			return "", err
		}
		if !applied {
			return u.report(log, model.OutcomeAlreadyApplied), nil
		}

		amount := c.Amount
		if amount.IsZero() && order.ExpectedAmount != nil {
			amount = *order.ExpectedAmount
		}
		u.report(log.With(slog.String("status", string(next))), model.OutcomeApplied)
		u.publish(ctx, order, next, amount, c.CaptureID, 0)
		return model.OutcomeApplied, nil

	case c.Status.IsFailure():
		// The session stays open for a retry, so the ledger row stays pending with the order.
		return u.report(log, model.OutcomeDeclined), nil

	default:
		return u.report(log, model.OutcomeIgnored), nil
	}
}

// ConfirmManual accepts the customer's claim of a completed transfer without verifying it.
// A pending order gets its manual target first.
func (u *ReconcileUseCase) ConfirmManual(ctx context.Context, m model.ManualConfirmation) (*model.Order, model.Outcome, error) {
	reference := strings.TrimSpace(m.Reference)
	if reference == "" {
		return nil, "", domainErrors.ErrMissingReference
	}

	order, err := u.orders.GetByID(ctx, m.OrderID)
	if err != nil {
		return nil, "", err
	}
	if order.Status == model.OrderStatusPending {
		if order, _, err = u.derive.Derive(ctx, m.OrderID, string(model.PaymentMethodZelle)); err != nil {
			return nil, "", err
		}
	}

	switch order.Status {
	case model.OrderStatusAwaitingManual:
	case model.OrderStatusPaidManual:
		return order, model.OutcomeAlreadyApplied, nil
	default:
		return nil, "", domainErrors.ErrInvalidState
	}

	log := u.logger.With(slog.Int64("order_id", order.ID), slog.String("reference", reference))
	if m.IPAddress != nil {
		log = log.With(slog.String("ip", *m.IPAddress))
	}

	next, _ := model.Next(order.Status, model.EventManualConfirmed)
	change := model.StatusChange{OrderID: order.ID, From: order.Status, To: next}
	if order.PaymentRecordID != nil {
		change.Settlement = &model.Settlement{
			RecordID:   *order.PaymentRecordID,
			Status:     model.PaymentStatusCompleted,
			Reference:  &reference,
			PayerName:  m.PayerName,
			PayerEmail: m.PayerEmail,
		}
	}

	applied, err := u.orders.Transition(ctx, change)
	if err != nil {
		return nil, "", err
	}

	current, err := u.orders.GetByID(ctx, order.ID)
	if err != nil {
		return nil, "", err
	}
	if !applied {
		if current.Status == model.OrderStatusPaidManual {
			return current, model.OutcomeAlreadyApplied, nil
		}
		return nil, "", domainErrors.ErrInvalidState
	}

	log.Warn("manual payment accepted without verification", slog.String("outcome", string(model.OutcomeApplied)))
	amount := order.TotalAmount
	if order.ExpectedAmount != nil {
		amount = *order.ExpectedAmount
	}
	u.publish(ctx, order, next, amount, reference, 0)
	return current, model.OutcomeApplied, nil
}

func (u *ReconcileUseCase) report(log *slog.Logger, outcome model.Outcome) model.Outcome {
	level := slog.LevelInfo
	switch outcome {
	case model.OutcomeNotFound, model.OutcomeWrongState, model.OutcomeAmountMismatch,
		model.OutcomeSessionMismatch, model.OutcomeUnderpaid, model.OutcomeOverpaid,
		model.OutcomeLedgerConflict, model.OutcomeDeclined:
		level = slog.LevelWarn
	}
	log.Log(context.Background(), level, "payment signal processed", slog.String("outcome", string(outcome)))
	return outcome
}

// publish runs after the transition committed; failures never undo it.
func (u *ReconcileUseCase) publish(ctx context.Context, order *model.Order, status model.OrderStatus, amount decimal.Decimal, reference string, confirmations int) {
	event := model.PaymentEvent{
		EventID:       uuid.NewString(),
		OrderID:       order.ID,
		Status:        status,
		Amount:        amount,
		TransactionID: reference,
		Confirmations: confirmations,
		OccurredAt:    u.now().UTC(),
	}
	if order.PaymentMethod != nil {
		event.Method = *order.PaymentMethod
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := u.notifier.Notify(notifyCtx, event); err != nil {
		u.logger.Error("payment notification failed",
			slog.Int64("order_id", order.ID),
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
	}
}
