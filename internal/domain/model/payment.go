package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the customer-facing payment option.
type PaymentMethod string

const (
	PaymentMethodStandard PaymentMethod = "standard"
	PaymentMethodBitcoin  PaymentMethod = "bitcoin"
	PaymentMethodPayPal   PaymentMethod = "paypal"
	PaymentMethodApplePay PaymentMethod = "applepay"
	PaymentMethodZelle    PaymentMethod = "zelle"
)

// Channel groups payment methods by how completion is learned.
type Channel string

const (
	ChannelOnChain   Channel = "onchain"
	ChannelProcessor Channel = "processor"
	ChannelManual    Channel = "manual"
)

const (
	FiatPrecision    int32 = 2
	OnChainPrecision int32 = 8
)

// ParsePaymentMethod normalizes method names sent by clients.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case PaymentMethodStandard, PaymentMethodBitcoin, PaymentMethodPayPal, PaymentMethodApplePay, PaymentMethodZelle:
		return m, true
	}
	return "", false
}

// Channel returns the completion channel for the method.
func (m PaymentMethod) Channel() Channel {
	switch m {
	case PaymentMethodBitcoin:
		return ChannelOnChain
	case PaymentMethodZelle:
		return ChannelManual
	default:
		return ChannelProcessor
	}
}

// Precision is the number of decimal places amounts in this method carry.
func (m PaymentMethod) Precision() int32 {
	if m == PaymentMethodBitcoin {
		return OnChainPrecision
	}
	return FiatPrecision
}

// ValidAmount reports whether amount is positive and fits the method precision.
func (m PaymentMethod) ValidAmount(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	return amount.Equal(amount.Round(m.Precision()))
}

// PaymentStatus is the ledger state of a single payment attempt.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// ParsePaymentStatus accepts "success" as an alias of completed.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return PaymentStatusPending, true
	case "completed", "success":
		return PaymentStatusCompleted, true
	case "failed":
		return PaymentStatusFailed, true
	}
	return "", false
}

// IsFinal reports whether the record has left pending.
func (s PaymentStatus) IsFinal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// PaymentRecord is one ledger row describing a payment attempt.
type PaymentRecord struct {
	ID          int64
	Method      PaymentMethod
	Amount      decimal.Decimal
	Description *string
	OrderID     *int64
	PayerName   *string
	PayerEmail  *string
	Reference   *string
	Status      PaymentStatus
	IPAddress   *string
	ProcessedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product is a catalogue entry with its available stock.
type Product struct {
	ID        int64
	Name      string
	Category  string
	Price     decimal.Decimal
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentDraft describes a ledger entry submitted by a client.
type PaymentDraft struct {
	Method      string
	Amount      decimal.Decimal
	OrderID     *int64
	PayerName   *string
	PayerEmail  *string
	Description *string
	Status      string
	IPAddress   *string
}
