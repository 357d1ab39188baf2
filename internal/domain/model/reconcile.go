package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentTarget is what a customer needs to pay an order through a method.
type PaymentTarget struct {
	OrderID         int64
	Method          PaymentMethod
	Address         string
	ExpectedAmount  decimal.Decimal
	SessionHandle   string
	Recipient       string
	Memo            string
	PaymentRecordID int64
}

// TargetFromOrder rebuilds the frozen target stored on an awaiting order.
func TargetFromOrder(o *Order) *PaymentTarget {
	if o == nil || o.PaymentMethod == nil {
		return nil
	}
	target := &PaymentTarget{OrderID: o.ID, Method: *o.PaymentMethod}
	if o.ExpectedAmount != nil {
		target.ExpectedAmount = *o.ExpectedAmount
	}
	if o.PaymentRecordID != nil {
		target.PaymentRecordID = *o.PaymentRecordID
	}
	switch target.Method.Channel() {
	case ChannelOnChain:
		target.Address = deref(o.ReceivingAddress)
	case ChannelProcessor:
		target.SessionHandle = deref(o.SessionHandle)
	case ChannelManual:
		target.Recipient = deref(o.ReceivingAddress)
		target.Memo = deref(o.SessionHandle)
	}
	return target
}

// SessionRequest describes the checkout a processor session should collect.
type SessionRequest struct {
	OrderID  int64
	Method   PaymentMethod
	Amount   decimal.Decimal
	Currency string
}

// ManualMemo is the transfer memo customers quote for manual payments.
func ManualMemo(orderID int64) string {
	return fmt.Sprintf("Order #%d", orderID)
}

// OnChainConfirmation reports an on-chain payment seen for an order address.
type OnChainConfirmation struct {
	OrderID       int64
	TransactionID string
	Amount        decimal.Decimal
	Confirmations int
}

// CaptureStatus is the processor-reported result of a session.
type CaptureStatus string

const (
	CaptureStatusCompleted CaptureStatus = "COMPLETED"
	CaptureStatusPending   CaptureStatus = "PENDING"
	CaptureStatusDenied    CaptureStatus = "DENIED"
	CaptureStatusFailed    CaptureStatus = "FAILED"
	CaptureStatusVoided    CaptureStatus = "VOIDED"
)

// IsFailure reports whether the processor gave up on the session.
func (s CaptureStatus) IsFailure() bool {
	return s == CaptureStatusDenied || s == CaptureStatusFailed || s == CaptureStatusVoided
}

// CaptureResult reports a processor capture for an order session.
type CaptureResult struct {
	OrderID   int64
	SessionID string
	CaptureID string
	Status    CaptureStatus
	Amount    decimal.Decimal
}

// ManualConfirmation is the customer's claim of a completed transfer.
type ManualConfirmation struct {
	OrderID    int64
	Reference  string
	PayerName  *string
	PayerEmail *string
	IPAddress  *string
}

// Outcome names what intake did with a signal.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeAlreadyApplied  Outcome = "already_applied"
	OutcomeBelowThreshold  Outcome = "below_threshold"
	OutcomeNotFound        Outcome = "order_not_found"
	OutcomeWrongState      Outcome = "wrong_state"
	OutcomeAmountMismatch  Outcome = "amount_mismatch"
	OutcomeUnderpaid       Outcome = "underpaid"
	OutcomeOverpaid        Outcome = "overpaid"
	OutcomeSessionMismatch Outcome = "session_mismatch"
	OutcomeDeclined        Outcome = "declined"
	OutcomeIgnored         Outcome = "ignored"
	OutcomeLedgerConflict  Outcome = "ledger_conflict"
)

// Settlement finalizes the ledger entry that belongs to a transition.
type Settlement struct {
	RecordID   int64
	Status     PaymentStatus
	Reference  *string
	PayerName  *string
	PayerEmail *string
}

// StatusChange is a guarded order transition, applied only while the order still holds From.
type StatusChange struct {
	OrderID    int64
	From       OrderStatus
	To         OrderStatus
	Settlement *Settlement
	Restock    bool
}

// TargetAttachment opens a payment attempt: it stores the target on the order and inserts its pending ledger entry.
type TargetAttachment struct {
	OrderID          int64
	From             OrderStatus
	To               OrderStatus
	Method           PaymentMethod
	ReceivingAddress *string
	ExpectedAmount   *decimal.Decimal
	SessionHandle    *string
	Record           PaymentRecord
}

// PaymentEvent is the outbound notification emitted after a settled transition.
type PaymentEvent struct {
	EventID       string          `json:"eventId"`
	OrderID       int64           `json:"orderId"`
	Status        OrderStatus     `json:"status"`
	Method        PaymentMethod   `json:"method"`
	Amount        decimal.Decimal `json:"receivedAmount"`
	TransactionID string          `json:"transactionId,omitempty"`
	Confirmations int             `json:"confirmations,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
