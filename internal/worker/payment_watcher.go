package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/storefront/internal/adapter/explorer"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// PaymentFacade exposes the subset of application functionality required by the watcher.
type PaymentFacade interface {
	AwaitingOnChain(ctx context.Context, afterID int64, limit int) ([]model.Order, error)
	AddressActivity(ctx context.Context, address string) (*explorer.Activity, error)
	ApplyOnChain(ctx context.Context, confirmation model.OnChainConfirmation) (model.Outcome, error)
}

// PaymentWatcher polls the block explorer for awaiting on-chain orders and feeds what it sees
// into the same intake the webhook uses.
type PaymentWatcher struct {
	facade       PaymentFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	// cursor is the last order id dispatched; only the dispatcher goroutine touches it.
	cursor int64

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewPaymentWatcher constructs watcher worker pool.
func NewPaymentWatcher(facade PaymentFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *PaymentWatcher {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &PaymentWatcher{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Order, batchSize*workers),
	}
}

// Start launches background polling.
func (w *PaymentWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker(runCtx)
	}

	w.wg.Add(1)
	go w.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (w *PaymentWatcher) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *PaymentWatcher) dispatch(ctx context.Context) {
	defer w.wg.Done()
	defer close(w.jobs)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.fetchAndDispatch(ctx)
		}
	}
}

// fetchAndDispatch walks the awaiting orders one batch per tick and wraps around at the end,
// so orders that never get paid cannot starve newer ones.
func (w *PaymentWatcher) fetchAndDispatch(ctx context.Context) {
	orders, err := w.facade.AwaitingOnChain(ctx, w.cursor, w.batchSize)
	if err == nil && len(orders) == 0 && w.cursor > 0 {
		w.cursor = 0
		orders, err = w.facade.AwaitingOnChain(ctx, 0, w.batchSize)
	}
	if err != nil {
		w.logger.Error("fetch awaiting orders failed", slog.String("error", err.Error()))
		return
	}
	if len(orders) < w.batchSize {
		w.cursor = 0
	} else {
		w.cursor = orders[len(orders)-1].ID
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case w.jobs <- order:
		}
	}
}

func (w *PaymentWatcher) worker(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-w.jobs:
			if !ok {
				return
			}
			w.handleOrder(ctx, order)
		}
	}
}

func (w *PaymentWatcher) handleOrder(ctx context.Context, order model.Order) {
	if order.ReceivingAddress == nil {
		return
	}

	activity, err := w.facade.AddressActivity(ctx, *order.ReceivingAddress)
	if err != nil {
		var limited explorer.TooManyRequestsError
		switch {
		case errors.As(err, &limited):
			w.logger.Warn("explorer rate limited", slog.Duration("retry_after", limited.RetryAfter))
			sleep(ctx, limited.RetryAfter)
		case errors.Is(err, explorer.ErrAddressUnknown):
		default:
			w.logger.Error("explorer lookup failed", slog.Int64("order_id", order.ID), slog.String("error", err.Error()))
		}
		return
	}
	if !activity.Seen() {
		return
	}

	outcome, err := w.facade.ApplyOnChain(ctx, model.OnChainConfirmation{
		OrderID:       order.ID,
		TransactionID: activity.TransactionID,
		Amount:        activity.Received,
		Confirmations: activity.Confirmations,
	})
	if err != nil {
		w.logger.Error("apply on-chain payment failed", slog.Int64("order_id", order.ID), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watched address checked", slog.Int64("order_id", order.ID), slog.String("outcome", string(outcome)))
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
