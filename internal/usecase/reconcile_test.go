package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/polkiloo/storefront/internal/config"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

func awaitingOnChain(t *testing.T, f *fixture, id int64, total string) model.Order {
	t.Helper()
	f.pendingOrder(id, total)
	if _, _, err := f.payments.Derive(context.Background(), id, "bitcoin"); err != nil {
		t.Fatalf("derive returned error: %v", err)
	}
	return f.mustOrder(t, id)
}

func TestReconcileApplyOnChainSettlesOnce(t *testing.T) {
	f := newFixture(t, nil)
	awaitingOnChain(t, f, 42, "100.00")
	ctx := context.Background()

	confirmation := model.OnChainConfirmation{OrderID: 42, TransactionID: "abc123", Amount: dec("0.00200000"), Confirmations: 6}

	outcome, err := f.reconcile.ApplyOnChain(ctx, confirmation)
	if err != nil {
		t.Fatalf("apply returned error: %v", err)
	}
	if outcome != model.OutcomeApplied {
		t.Fatalf("expected applied, got %s", outcome)
	}

	order := f.mustOrder(t, 42)
	if order.Status != model.OrderStatusPaidOnChain {
		t.Fatalf("expected PAID_ONCHAIN, got %s", order.Status)
	}
	record := f.mustRecord(t, order)
	if record.Status != model.PaymentStatusCompleted || record.Reference == nil || *record.Reference != "abc123" {
		t.Fatalf("unexpected ledger entry %+v", record)
	}

	events := f.notifier.Events()
	if len(events) != 1 {
		t.Fatalf("expected one notification, got %d", len(events))
	}
	if events[0].Status != model.OrderStatusPaidOnChain || events[0].Method != model.PaymentMethodBitcoin || events[0].EventID == "" {
		t.Fatalf("unexpected event %+v", events[0])
	}

	outcome, err = f.reconcile.ApplyOnChain(ctx, confirmation)
	if err != nil {
		t.Fatalf("replay returned error: %v", err)
	}
	if outcome != model.OutcomeAlreadyApplied {
		t.Fatalf("expected already_applied on replay, got %s", outcome)
	}
	if f.store.CompletedRecords(42) != 1 || len(f.notifier.Events()) != 1 {
		t.Fatal("replay must not settle or notify again")
	}
}

func TestReconcileApplyOnChainRefusesSettledLedgerRow(t *testing.T) {
	f := newFixture(t, nil)
	awaitingOnChain(t, f, 42, "100.00")
	ctx := context.Background()

	record := f.mustRecord(t, f.mustOrder(t, 42))
	if _, err := f.store.Payments().UpdateStatus(ctx, record.ID, model.PaymentStatusFailed); err != nil {
		t.Fatalf("update status: %v", err)
	}

	outcome, err := f.reconcile.ApplyOnChain(ctx, model.OnChainConfirmation{OrderID: 42, TransactionID: "abc123", Amount: dec("0.00200000"), Confirmations: 6})
	if err != nil {
		t.Fatalf("apply returned error: %v", err)
	}
	if outcome != model.OutcomeLedgerConflict {
		t.Fatalf("expected ledger_conflict, got %s", outcome)
	}
	order := f.mustOrder(t, 42)
	if order.Status != model.OrderStatusAwaitingOnChain || f.mustRecord(t, order).Status != model.PaymentStatusFailed {
		t.Fatalf("expected nothing to move, got %s", order.Status)
	}
	if len(f.notifier.Events()) != 0 {
		t.Fatal("no notification expected for a refused settlement")
	}
}

func TestReconcileApplyOnChainThresholdBoundary(t *testing.T) {
	cases := []struct {
		confirmations int
		outcome       model.Outcome
		status        model.OrderStatus
	}{
		{0, model.OutcomeBelowThreshold, model.OrderStatusAwaitingOnChain},
		{5, model.OutcomeBelowThreshold, model.OrderStatusAwaitingOnChain},
		{6, model.OutcomeApplied, model.OrderStatusPaidOnChain},
		{7, model.OutcomeApplied, model.OrderStatusPaidOnChain},
	}
	for _, tc := range cases {
		t.Run(string(tc.outcome), func(t *testing.T) {
			f := newFixture(t, nil)
			awaitingOnChain(t, f, 1, "100.00")

			outcome, err := f.reconcile.ApplyOnChain(context.Background(), model.OnChainConfirmation{
				OrderID: 1, TransactionID: "tx", Amount: dec("0.002"), Confirmations: tc.confirmations,
			})
			if err != nil {
				t.Fatalf("apply returned error: %v", err)
			}
			if outcome != tc.outcome {
				t.Fatalf("%d confirmations: expected %s, got %s", tc.confirmations, tc.outcome, outcome)
			}
			if got := f.mustOrder(t, 1).Status; got != tc.status {
				t.Fatalf("%d confirmations: expected %s, got %s", tc.confirmations, tc.status, got)
			}
		})
	}
}

func TestReconcileApplyOnChainAmountMismatchIsNoOp(t *testing.T) {
	f := newFixture(t, nil)
	awaitingOnChain(t, f, 3, "100.00")

	for _, amount := range []string{"0.0019", "0.00200001"} {
		outcome, err := f.reconcile.ApplyOnChain(context.Background(), model.OnChainConfirmation{
			OrderID: 3, TransactionID: "tx", Amount: dec(amount), Confirmations: 10,
		})
		if err != nil {
			t.Fatalf("apply returned error: %v", err)
		}
		if outcome != model.OutcomeAmountMismatch {
			t.Fatalf("%s: expected amount_mismatch, got %s", amount, outcome)
		}
	}

	order := f.mustOrder(t, 3)
	if order.Status != model.OrderStatusAwaitingOnChain {
		t.Fatalf("expected order to keep awaiting, got %s", order.Status)
	}
	if f.mustRecord(t, order).Status != model.PaymentStatusPending {
		t.Fatal("expected ledger entry to stay pending")
	}
	if len(f.notifier.Events()) != 0 {
		t.Fatal("mismatch must not notify")
	}
}

func TestReconcileApplyOnChainSettlesMismatchWhenEnabled(t *testing.T) {
	cases := []struct {
		name    string
		amount  string
		outcome model.Outcome
		status  model.OrderStatus
		ledger  model.PaymentStatus
	}{
		{"underpaid", "0.0015", model.OutcomeUnderpaid, model.OrderStatusUnderpaid, model.PaymentStatusFailed},
		{"overpaid", "0.003", model.OutcomeOverpaid, model.OrderStatusOverpaid, model.PaymentStatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, func(cfg *config.Config) { cfg.SettleMismatch = true })
			awaitingOnChain(t, f, 9, "100.00")

			outcome, err := f.reconcile.ApplyOnChain(context.Background(), model.OnChainConfirmation{
				OrderID: 9, TransactionID: "tx", Amount: dec(tc.amount), Confirmations: 6,
			})
			if err != nil {
				t.Fatalf("apply returned error: %v", err)
			}
			if outcome != tc.outcome {
				t.Fatalf("expected %s, got %s", tc.outcome, outcome)
			}
			order := f.mustOrder(t, 9)
			if order.Status != tc.status || f.mustRecord(t, order).Status != tc.ledger {
				t.Fatalf("unexpected state %s / %s", order.Status, f.mustRecord(t, order).Status)
			}
		})
	}
}

func TestReconcileApplyOnChainTolerance(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.AmountTolerance = dec("0.00001") })
	awaitingOnChain(t, f, 4, "100.00")

	outcome, err := f.reconcile.ApplyOnChain(context.Background(), model.OnChainConfirmation{
		OrderID: 4, TransactionID: "tx", Amount: dec("0.00199"), Confirmations: 6,
	})
	if err != nil || outcome != model.OutcomeApplied {
		t.Fatalf("expected applied within tolerance, got %s err=%v", outcome, err)
	}
}

func TestReconcileApplyOnChainIgnoresUnknownAndWrongState(t *testing.T) {
	f := newFixture(t, nil)
	f.pendingOrder(1, "10.00")
	f.pendingOrder(2, "10.00")
	if _, _, err := f.payments.Derive(context.Background(), 2, "zelle"); err != nil {
		t.Fatalf("derive returned error: %v", err)
	}

	cases := map[int64]model.Outcome{
		404: model.OutcomeNotFound,
		1:   model.OutcomeWrongState,
		2:   model.OutcomeWrongState,
	}
	for id, want := range cases {
		outcome, err := f.reconcile.ApplyOnChain(context.Background(), model.OnChainConfirmation{
			OrderID: id, TransactionID: "tx", Amount: dec("0.002"), Confirmations: 6,
		})
		if err != nil {
			t.Fatalf("order %d: unexpected error %v", id, err)
		}
		if outcome != want {
			t.Fatalf("order %d: expected %s, got %s", id, want, outcome)
		}
	}
}

func TestReconcileApplyOnChainConcurrentDeliveries(t *testing.T) {
	f := newFixture(t, nil)
	awaitingOnChain(t, f, 5, "100.00")

	const deliveries = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = make(map[model.Outcome]int)
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.reconcile.ApplyOnChain(context.Background(), model.OnChainConfirmation{
				OrderID: 5, TransactionID: "tx", Amount: dec("0.002"), Confirmations: 6,
			})
			if err != nil {
				t.Errorf("apply returned error: %v", err)
				return
			}
			mu.Lock()
			outcomes[outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if outcomes[model.OutcomeApplied] != 1 || outcomes[model.OutcomeAlreadyApplied] != deliveries-1 {
		t.Fatalf("expected a single applied delivery, got %v", outcomes)
	}
	if f.store.CompletedRecords(5) != 1 || len(f.notifier.Events()) != 1 {
		t.Fatal("expected one completed ledger entry and one notification")
	}
}

func TestReconcileNotificationFailureKeepsTransition(t *testing.T) {
	f := newFixture(t, nil)
	awaitingOnChain(t, f, 6, "100.00")
	f.notifier.Err = errors.New("endpoint down")

	outcome, err := f.reconcile.ApplyOnChain(context.Background(), model.OnChainConfirmation{
		OrderID: 6, TransactionID: "tx", Amount: dec("0.002"), Confirmations: 6,
	})
	if err != nil || outcome != model.OutcomeApplied {
		t.Fatalf("expected applied despite notification failure, got %s err=%v", outcome, err)
	}
	if f.mustOrder(t, 6).Status != model.OrderStatusPaidOnChain {
		t.Fatal("expected transition to persist")
	}
}

func TestReconcileApplyOnChainStoreError(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Err = errors.New("connection reset")

	if _, err := f.reconcile.ApplyOnChain(context.Background(), model.OnChainConfirmation{OrderID: 1, Confirmations: 6}); err == nil {
		t.Fatal("expected storage error to surface")
	}
}

func TestReconcileApplyCapture(t *testing.T) {
	ctx := context.Background()
	setup := func(t *testing.T) *fixture {
		f := newFixture(t, nil)
		f.pendingOrder(7, "25.00")
		if _, _, err := f.payments.Derive(ctx, 7, "paypal"); err != nil {
			t.Fatalf("derive returned error: %v", err)
		}
		return f
	}

	t.Run("completed", func(t *testing.T) {
		f := setup(t)
		capture := model.CaptureResult{OrderID: 7, SessionID: "sess-7-paypal", CaptureID: "cap-1", Status: model.CaptureStatusCompleted, Amount: dec("24.00")}

		outcome, err := f.reconcile.ApplyCapture(ctx, capture)
		if err != nil || outcome != model.OutcomeApplied {
			t.Fatalf("expected applied, got %s err=%v", outcome, err)
		}
		order := f.mustOrder(t, 7)
		record := f.mustRecord(t, order)
		if order.Status != model.OrderStatusPaidProcessor || record.Status != model.PaymentStatusCompleted || *record.Reference != "cap-1" {
			t.Fatalf("unexpected state %s %+v", order.Status, record)
		}

		if outcome, _ := f.reconcile.ApplyCapture(ctx, capture); outcome != model.OutcomeAlreadyApplied {
			t.Fatalf("expected already_applied on replay, got %s", outcome)
		}
		if len(f.notifier.Events()) != 1 {
			t.Fatalf("expected one notification, got %d", len(f.notifier.Events()))
		}
	})

	t.Run("session mismatch", func(t *testing.T) {
		f := setup(t)
		outcome, _ := f.reconcile.ApplyCapture(ctx, model.CaptureResult{OrderID: 7, SessionID: "other", Status: model.CaptureStatusCompleted})
		if outcome != model.OutcomeSessionMismatch || f.mustOrder(t, 7).Status != model.OrderStatusAwaitingProcessor {
			t.Fatalf("expected session_mismatch without transition, got %s", outcome)
		}
	})

	t.Run("denied", func(t *testing.T) {
		f := setup(t)
		outcome, err := f.reconcile.ApplyCapture(ctx, model.CaptureResult{OrderID: 7, SessionID: "sess-7-paypal", Status: model.CaptureStatusDenied})
		if err != nil || outcome != model.OutcomeDeclined {
			t.Fatalf("expected declined, got %s err=%v", outcome, err)
		}
		order := f.mustOrder(t, 7)
		if order.Status != model.OrderStatusAwaitingProcessor || f.mustRecord(t, order).Status != model.PaymentStatusPending {
			t.Fatalf("expected pending ledger and unchanged order, got %s", order.Status)
		}
	})

	t.Run("denied then completed on the same session", func(t *testing.T) {
		f := setup(t)
		if outcome, _ := f.reconcile.ApplyCapture(ctx, model.CaptureResult{OrderID: 7, SessionID: "sess-7-paypal", Status: model.CaptureStatusDenied}); outcome != model.OutcomeDeclined {
			t.Fatalf("expected declined, got %s", outcome)
		}

		outcome, err := f.reconcile.ApplyCapture(ctx, model.CaptureResult{OrderID: 7, SessionID: "sess-7-paypal", CaptureID: "cap-2", Status: model.CaptureStatusCompleted})
		if err != nil || outcome != model.OutcomeApplied {
			t.Fatalf("expected retry to apply, got %s err=%v", outcome, err)
		}
		order := f.mustOrder(t, 7)
		record := f.mustRecord(t, order)
		if order.Status != model.OrderStatusPaidProcessor || record.Status != model.PaymentStatusCompleted {
			t.Fatalf("order and ledger disagree: %s %s", order.Status, record.Status)
		}
		if f.store.CompletedRecords(7) != 1 {
			t.Fatalf("expected one completed record, got %d", f.store.CompletedRecords(7))
		}
	})

	t.Run("pending capture", func(t *testing.T) {
		f := setup(t)
		outcome, _ := f.reconcile.ApplyCapture(ctx, model.CaptureResult{OrderID: 7, SessionID: "sess-7-paypal", Status: model.CaptureStatusPending})
		if outcome != model.OutcomeIgnored {
			t.Fatalf("expected ignored, got %s", outcome)
		}
	})

	t.Run("wrong state", func(t *testing.T) {
		f := newFixture(t, nil)
		f.pendingOrder(8, "25.00")
		outcome, _ := f.reconcile.ApplyCapture(ctx, model.CaptureResult{OrderID: 8, SessionID: "x", Status: model.CaptureStatusCompleted})
		if outcome != model.OutcomeWrongState {
			t.Fatalf("expected wrong_state, got %s", outcome)
		}
		if outcome, _ := f.reconcile.ApplyCapture(ctx, model.CaptureResult{OrderID: 404}); outcome != model.OutcomeNotFound {
			t.Fatalf("expected order_not_found, got %s", outcome)
		}
	})
}

func TestReconcileConfirmManual(t *testing.T) {
	f := newFixture(t, nil)
	f.pendingOrder(15, "30.00")
	ctx := context.Background()
	payer := "Grace"

	order, outcome, err := f.reconcile.ConfirmManual(ctx, model.ManualConfirmation{OrderID: 15, Reference: " ZL-77 ", PayerName: &payer})
	if err != nil {
		t.Fatalf("confirm returned error: %v", err)
	}
	if outcome != model.OutcomeApplied || order.Status != model.OrderStatusPaidManual {
		t.Fatalf("expected paid manual, got %s %s", outcome, order.Status)
	}
	record := f.mustRecord(t, f.mustOrder(t, 15))
	if record.Status != model.PaymentStatusCompleted || *record.Reference != "ZL-77" || *record.PayerName != "Grace" {
		t.Fatalf("unexpected ledger entry %+v", record)
	}

	_, outcome, err = f.reconcile.ConfirmManual(ctx, model.ManualConfirmation{OrderID: 15, Reference: "ZL-77"})
	if err != nil || outcome != model.OutcomeAlreadyApplied {
		t.Fatalf("expected already_applied on repeat, got %s err=%v", outcome, err)
	}
	if len(f.notifier.Events()) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.Events()))
	}
}

func TestReconcileConfirmManualRejects(t *testing.T) {
	f := newFixture(t, nil)
	awaitingOnChain(t, f, 16, "30.00")
	ctx := context.Background()

	if _, _, err := f.reconcile.ConfirmManual(ctx, model.ManualConfirmation{OrderID: 16, Reference: "ref"}); !errors.Is(err, domainErrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if _, _, err := f.reconcile.ConfirmManual(ctx, model.ManualConfirmation{OrderID: 16, Reference: "  "}); !errors.Is(err, domainErrors.ErrMissingReference) {
		t.Fatalf("expected ErrMissingReference, got %v", err)
	}
	if _, _, err := f.reconcile.ConfirmManual(ctx, model.ManualConfirmation{OrderID: 99, Reference: "ref"}); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPolicyClassify(t *testing.T) {
	cases := []struct {
		name      string
		tolerance string
		expected  string
		received  string
		verdict   Verdict
	}{
		{"exact", "0", "0.00200000", "0.002", VerdictMatch},
		{"one satoshi short", "0", "0.00200000", "0.00199999", VerdictUnderpaid},
		{"one satoshi over", "0", "0.00200000", "0.00200001", VerdictOverpaid},
		{"within tolerance", "0.00000010", "0.002", "0.00199995", VerdictMatch},
		{"tolerance boundary", "0.00000010", "0.002", "0.0020001", VerdictMatch},
		{"beyond tolerance", "0.00000010", "0.002", "0.00200011", VerdictOverpaid},
		{"sub satoshi noise", "0", "0.002", "0.002000001", VerdictMatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Policy{Tolerance: dec(tc.tolerance)}
			if got := p.Classify(dec(tc.expected), dec(tc.received)); got != tc.verdict {
				t.Fatalf("expected %s, got %s", tc.verdict, got)
			}
		})
	}
}
