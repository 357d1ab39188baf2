package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/adapter/explorer"
	"github.com/polkiloo/storefront/internal/domain/model"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func awaitingOrder(id int64, address string) model.Order {
	return model.Order{ID: id, Status: model.OrderStatusAwaitingOnChain, ReceivingAddress: &address}
}

func TestNewPaymentWatcherDefaults(t *testing.T) {
	w := NewPaymentWatcher(&testhelpers.WatcherFacadeStub{}, time.Second, 0, 0, testLogger())
	if w.batchSize != 1 {
		t.Fatalf("expected batch size default to 1, got %d", w.batchSize)
	}
	if w.workers != 1 {
		t.Fatalf("expected workers default to 1, got %d", w.workers)
	}
}

func TestPaymentWatcherFeedsSeenPayments(t *testing.T) {
	facade := &testhelpers.WatcherFacadeStub{Orders: [][]model.Order{{awaitingOrder(1, "addr-1"), awaitingOrder(2, "addr-2")}}}
	w := NewPaymentWatcher(facade, 10*time.Millisecond, 2, 2, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	deadline := time.After(time.Second)
	for len(facade.AppliedSnapshot()) < 2 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for watched payments")
		case <-time.After(10 * time.Millisecond):
		}
	}
	w.Stop()

	for _, c := range facade.AppliedSnapshot() {
		if c.TransactionID != "tx-addr-"+strconv.FormatInt(c.OrderID, 10) {
			t.Fatalf("unexpected transaction %q for order %d", c.TransactionID, c.OrderID)
		}
		if c.Confirmations != 6 || !c.Amount.Equal(decimal.RequireFromString("0.002")) {
			t.Fatalf("unexpected confirmation %+v", c)
		}
	}
}

func TestPaymentWatcherHandleOrder(t *testing.T) {
	cases := []struct {
		name      string
		order     model.Order
		activity  func(context.Context, string) (*explorer.Activity, error)
		wantApply bool
		lookups   int
	}{
		{
			name:    "no address",
			order:   model.Order{ID: 1, Status: model.OrderStatusAwaitingOnChain},
			lookups: 0,
		},
		{
			name:  "nothing received",
			order: awaitingOrder(2, "addr"),
			activity: func(context.Context, string) (*explorer.Activity, error) {
				return &explorer.Activity{Address: "addr"}, nil
			},
			lookups: 1,
		},
		{
			name:  "unknown address",
			order: awaitingOrder(3, "addr"),
			activity: func(context.Context, string) (*explorer.Activity, error) {
				return nil, explorer.ErrAddressUnknown
			},
			lookups: 1,
		},
		{
			name:  "explorer failure",
			order: awaitingOrder(4, "addr"),
			activity: func(context.Context, string) (*explorer.Activity, error) {
				return nil, errors.New("connection reset")
			},
			lookups: 1,
		},
		{
			name:      "unconfirmed payment is still reported",
			order:     awaitingOrder(5, "addr"),
			wantApply: true,
			activity: func(context.Context, string) (*explorer.Activity, error) {
				return &explorer.Activity{Address: "addr", TransactionID: "tx", Received: decimal.RequireFromString("0.1")}, nil
			},
			lookups: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			facade := &testhelpers.WatcherFacadeStub{ActivityFn: tc.activity}
			w := NewPaymentWatcher(facade, time.Second, 1, 1, testLogger())
			w.handleOrder(context.Background(), tc.order)

			if got := facade.Lookups(); got != tc.lookups {
				t.Fatalf("expected %d lookups, got %d", tc.lookups, got)
			}
			applied := facade.AppliedSnapshot()
			if tc.wantApply != (len(applied) == 1) {
				t.Fatalf("unexpected applied confirmations %+v", applied)
			}
			if tc.wantApply && applied[0].OrderID != tc.order.ID {
				t.Fatalf("unexpected order id %d", applied[0].OrderID)
			}
		})
	}
}

func TestPaymentWatcherBacksOffWhenRateLimited(t *testing.T) {
	facade := &testhelpers.WatcherFacadeStub{ActivityFn: func(context.Context, string) (*explorer.Activity, error) {
		return nil, explorer.TooManyRequestsError{RetryAfter: time.Hour}
	}}
	w := NewPaymentWatcher(facade, time.Second, 1, 1, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	w.handleOrder(ctx, awaitingOrder(1, "addr"))
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond || elapsed > time.Second {
		t.Fatalf("expected back-off until context deadline, took %v", elapsed)
	}
	if len(facade.AppliedSnapshot()) != 0 {
		t.Fatal("rate limited lookup must not apply anything")
	}
}

func TestPaymentWatcherSurvivesApplyErrors(t *testing.T) {
	calls := 0
	facade := &testhelpers.WatcherFacadeStub{ApplyFn: func(context.Context, model.OnChainConfirmation) (model.Outcome, error) {
		calls++
		return "", errors.New("db down")
	}}
	w := NewPaymentWatcher(facade, time.Second, 1, 1, testLogger())
	w.handleOrder(context.Background(), awaitingOrder(1, "addr"))
	w.handleOrder(context.Background(), awaitingOrder(2, "addr"))
	if calls != 2 {
		t.Fatalf("expected both orders attempted, got %d", calls)
	}
}

func TestPaymentWatcherStopWithoutStart(t *testing.T) {
	w := NewPaymentWatcher(&testhelpers.WatcherFacadeStub{}, time.Second, 1, 1, testLogger())
	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop blocked without start")
	}
}

func TestPaymentWatcherRotatesThroughBacklog(t *testing.T) {
	backlog := []model.Order{awaitingOrder(1, "addr-1"), awaitingOrder(2, "addr-2"), awaitingOrder(3, "addr-3")}

	var mu sync.Mutex
	seen := map[string]int{}
	var cursors []int64
	facade := &testhelpers.WatcherFacadeStub{
		OrdersFn: func(_ context.Context, afterID int64, limit int) ([]model.Order, error) {
			mu.Lock()
			cursors = append(cursors, afterID)
			mu.Unlock()
			var page []model.Order
			for _, o := range backlog {
				if o.ID > afterID && len(page) < limit {
					page = append(page, o)
				}
			}
			return page, nil
		},
		ActivityFn: func(_ context.Context, address string) (*explorer.Activity, error) {
			mu.Lock()
			seen[address]++
			mu.Unlock()
			return &explorer.Activity{Address: address, Received: decimal.Zero}, nil
		},
	}
	w := NewPaymentWatcher(facade, 5*time.Millisecond, 2, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	deadline := time.After(time.Second)
	for {
		mu.Lock()
		done := seen["addr-1"] >= 2 && seen["addr-2"] >= 2 && seen["addr-3"] >= 2
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			mu.Lock()
			defer mu.Unlock()
			t.Fatalf("backlog not rotated: seen=%v cursors=%v", seen, cursors)
		case <-time.After(5 * time.Millisecond):
		}
	}
	w.Stop()

	if len(facade.AppliedSnapshot()) != 0 {
		t.Fatalf("expected nothing applied for unpaid orders")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(cursors) < 3 || cursors[0] != 0 || cursors[1] != 2 || cursors[2] != 0 {
		t.Fatalf("expected cursor to advance past the first page and wrap, got %v", cursors)
	}
}

func TestPaymentWatcherWrapsWhenPageEmpty(t *testing.T) {
	var mu sync.Mutex
	var cursors []int64
	facade := &testhelpers.WatcherFacadeStub{
		OrdersFn: func(_ context.Context, afterID int64, limit int) ([]model.Order, error) {
			mu.Lock()
			defer mu.Unlock()
			cursors = append(cursors, afterID)
			if afterID == 0 {
				return []model.Order{awaitingOrder(1, "addr-1"), awaitingOrder(2, "addr-2")}, nil
			}
			return nil, nil
		},
		ActivityFn: func(_ context.Context, address string) (*explorer.Activity, error) {
			return &explorer.Activity{Address: address, Received: decimal.Zero}, nil
		},
	}
	w := NewPaymentWatcher(facade, time.Hour, 2, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.fetchAndDispatch(ctx)
	if w.cursor != 2 {
		t.Fatalf("expected cursor at 2 after a full page, got %d", w.cursor)
	}
	// Drain the dispatched jobs since no workers run.
	<-w.jobs
	<-w.jobs
	w.fetchAndDispatch(ctx)
	<-w.jobs
	<-w.jobs

	mu.Lock()
	defer mu.Unlock()
	want := []int64{0, 2, 0}
	if len(cursors) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, cursors)
	}
	for i := range want {
		if cursors[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, cursors)
		}
	}
}
