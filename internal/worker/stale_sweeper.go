package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// OrderSweeper cancels awaiting orders that outlived their payment window.
type OrderSweeper interface {
	CancelStale(ctx context.Context, ttl time.Duration, limit int) (int, error)
}

// StaleSweeper periodically releases stock held by abandoned orders.
type StaleSweeper struct {
	sweeper   OrderSweeper
	ttl       time.Duration
	interval  time.Duration
	batchSize int
	logger    *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewStaleSweeper constructs sweeper; interval defaults to a minute.
func NewStaleSweeper(sweeper OrderSweeper, ttl, interval time.Duration, batchSize int, logger *slog.Logger) *StaleSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &StaleSweeper{
		sweeper:   sweeper,
		ttl:       ttl,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Start launches the sweep loop. A non-positive TTL keeps the sweeper idle.
func (s *StaleSweeper) Start(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(runCtx)
}

// Stop waits for an in-flight sweep to finish.
func (s *StaleSweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *StaleSweeper) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *StaleSweeper) sweep(ctx context.Context) {
	cancelled, err := s.sweeper.CancelStale(ctx, s.ttl, s.batchSize)
	if err != nil {
		s.logger.Error("stale order sweep failed", slog.String("error", err.Error()))
		return
	}
	if cancelled > 0 {
		s.logger.Info("stale orders cancelled", slog.Int("count", cancelled), slog.Duration("ttl", s.ttl))
	}
}
