package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSessionRequest selects the payment method for an order.
type PaymentSessionRequest struct {
	Method string `json:"method" validate:"required"`
}

// BitcoinPaymentResponse is returned by generate-bitcoin-payment.
type BitcoinPaymentResponse struct {
	BitcoinAddress string `json:"bitcoinAddress"`
	BitcoinAmount  string `json:"bitcoinAmount"`
}

// PaymentTargetResponse tells the customer how to pay an order.
type PaymentTargetResponse struct {
	OrderID             int64  `json:"orderId"`
	Status              string `json:"status"`
	Method              string `json:"method"`
	Address             string `json:"address,omitempty"`
	ExpectedAmount      string `json:"expectedAmount,omitempty"`
	SessionID           string `json:"sessionId,omitempty"`
	Recipient           string `json:"recipient,omitempty"`
	Memo                string `json:"memo,omitempty"`
	PaymentRecordID     int64  `json:"paymentRecordId,omitempty"`
	PollIntervalSeconds int    `json:"pollIntervalSeconds,omitempty"`
}

// ManualConfirmationRequest is the customer's claim of a sent transfer.
type ManualConfirmationRequest struct {
	Reference  string  `json:"reference" validate:"required,max=200"`
	PayerName  *string `json:"payerName,omitempty" validate:"omitempty,max=200"`
	PayerEmail *string `json:"payerEmail,omitempty" validate:"omitempty,email"`
}

// OutcomeResponse reports what intake did with a signal.
type OutcomeResponse struct {
	Outcome string `json:"outcome"`
	Status  string `json:"status,omitempty"`
}

// CreatePaymentRecordRequest is the payload for POST /api/PaymentRecords.
type CreatePaymentRecordRequest struct {
	PaymentType string          `json:"paymentType" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=500"`
	OrderID     *int64          `json:"orderId,omitempty" validate:"omitempty,gt=0"`
	UserName    *string         `json:"userName,omitempty" validate:"omitempty,max=200"`
	UserEmail   *string         `json:"userEmail,omitempty" validate:"omitempty,email"`
	Status      string          `json:"status,omitempty"`
}

// UpdatePaymentStatusRequest moves a ledger entry.
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PaymentRecordResponse represents one ledger entry.
type PaymentRecordResponse struct {
	ID          int64     `json:"id"`
	PaymentType string    `json:"paymentType"`
	Amount      string    `json:"amount"`
	Description *string   `json:"description,omitempty"`
	OrderID     *int64    `json:"orderId,omitempty"`
	UserName    *string   `json:"userName,omitempty"`
	UserEmail   *string   `json:"userEmail,omitempty"`
	Reference   *string   `json:"reference,omitempty"`
	Status      string    `json:"status"`
	ProcessedAt time.Time `json:"processedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
