package dto

import "github.com/shopspring/decimal"

// OnChainWebhookRequest is the block notifier payload.
type OnChainWebhookRequest struct {
	OrderID       int64           `json:"orderId" validate:"required,gt=0"`
	TransactionID string          `json:"transactionId" validate:"required,notblank,max=128"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	Confirmations *int            `json:"confirmations" validate:"required,gte=0"`
}

// CaptureWebhookRequest is the processor capture callback payload.
type CaptureWebhookRequest struct {
	OrderID   int64           `json:"orderId" validate:"required,gt=0"`
	SessionID string          `json:"sessionId" validate:"required,notblank"`
	CaptureID string          `json:"captureId" validate:"required,notblank"`
	Status    string          `json:"status" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gte=0"`
}
