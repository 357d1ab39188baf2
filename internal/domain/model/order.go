package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the payment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "PENDING"
	OrderStatusAwaitingOnChain   OrderStatus = "AWAITING_ONCHAIN"
	OrderStatusAwaitingProcessor OrderStatus = "AWAITING_PROCESSOR"
	OrderStatusAwaitingManual    OrderStatus = "AWAITING_MANUAL"
	OrderStatusPaidOnChain       OrderStatus = "PAID_ONCHAIN"
	OrderStatusPaidProcessor     OrderStatus = "PAID_PROCESSOR"
	OrderStatusPaidManual        OrderStatus = "PAID_MANUAL"
	OrderStatusUnderpaid         OrderStatus = "UNDERPAID"
	OrderStatusOverpaid          OrderStatus = "OVERPAID"
	OrderStatusCancelled         OrderStatus = "CANCELLED"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAwaitingOnChain,
	OrderStatusAwaitingProcessor,
	OrderStatusAwaitingManual,
	OrderStatusPaidOnChain,
	OrderStatusPaidProcessor,
	OrderStatusPaidManual,
	OrderStatusUnderpaid,
	OrderStatusOverpaid,
	OrderStatusCancelled,
}

// ParseOrderStatus accepts status names in any letter case.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	candidate := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range orderStatuses {
		if s == candidate {
			return s, true
		}
	}
	return "", false
}

// IsAwaiting reports whether a payment target has been issued and no result is known yet.
func (s OrderStatus) IsAwaiting() bool {
	switch s {
	case OrderStatusAwaitingOnChain, OrderStatusAwaitingProcessor, OrderStatusAwaitingManual:
		return true
	}
	return false
}

// IsPaid reports whether the order has been settled through any channel.
func (s OrderStatus) IsPaid() bool {
	switch s {
	case OrderStatusPaidOnChain, OrderStatusPaidProcessor, OrderStatusPaidManual, OrderStatusOverpaid:
		return true
	}
	return false
}

// IsTerminal reports whether no regular event moves the order any further.
func (s OrderStatus) IsTerminal() bool {
	for key := range transitions {
		if key.from == s {
			return false
		}
	}
	return true
}

// Order describes a storefront purchase together with its payment target.
type Order struct {
	ID               int64
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    *string
	Items            []LineItem
	TotalAmount      decimal.Decimal
	Status           OrderStatus
	PaymentMethod    *PaymentMethod
	ReceivingAddress *string
	ExpectedAmount   *decimal.Decimal
	SessionHandle    *string
	PaymentRecordID  *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LineItem is a product snapshot taken when the order was placed.
type LineItem struct {
	ID          int64
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	CreatedAt   time.Time
}

// Subtotal returns unit price multiplied by quantity.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderDraft carries customer input for a new order.
type OrderDraft struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone *string
	Items         []DraftItem
}

// DraftItem requests a quantity of a catalogue product.
type DraftItem struct {
	ProductID int64
	Quantity  int
}
