package dto

import "time"

// CreateOrderRequest is the payload for POST /api/orders.
type CreateOrderRequest struct {
	CustomerName  string             `json:"customerName" validate:"required,max=200"`
	CustomerEmail string             `json:"customerEmail" validate:"required,email"`
	CustomerPhone *string            `json:"customerPhone,omitempty" validate:"omitempty,max=50"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderItemRequest selects a quantity of one product.
type OrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

// UpdateOrderStatusRequest is the administrative status override.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderItemResponse is a line item snapshot.
type OrderItemResponse struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
}

// OrderResponse represents an order together with its payment target.
type OrderResponse struct {
	ID                  int64               `json:"id"`
	CustomerName        string              `json:"customerName"`
	CustomerEmail       string              `json:"customerEmail"`
	CustomerPhone       *string             `json:"customerPhone,omitempty"`
	Items               []OrderItemResponse `json:"items"`
	TotalAmount         string              `json:"totalAmount"`
	Status              string              `json:"status"`
	PaymentMethod       *string             `json:"paymentMethod,omitempty"`
	ReceivingAddress    *string             `json:"receivingAddress,omitempty"`
	ExpectedAmount      *string             `json:"expectedAmount,omitempty"`
	SessionHandle       *string             `json:"sessionHandle,omitempty"`
	PaymentRecordID     *int64              `json:"paymentRecordId,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
	PollIntervalSeconds int                 `json:"pollIntervalSeconds,omitempty"`
}
