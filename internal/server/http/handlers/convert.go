package handlers

import (
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

func toOrderResponse(order model.Order, pollInterval time.Duration) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:                  order.ID,
		CustomerName:        order.CustomerName,
		CustomerEmail:       order.CustomerEmail,
		CustomerPhone:       order.CustomerPhone,
		Items:               make([]dto.OrderItemResponse, 0, len(order.Items)),
		TotalAmount:         order.TotalAmount.StringFixed(model.FiatPrecision),
		Status:              string(order.Status),
		ReceivingAddress:    order.ReceivingAddress,
		SessionHandle:       order.SessionHandle,
		PaymentRecordID:     order.PaymentRecordID,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
		PollIntervalSeconds: int(pollInterval / time.Second),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.StringFixed(model.FiatPrecision),
			Quantity:    item.Quantity,
		})
	}
	if order.PaymentMethod != nil {
		method := string(*order.PaymentMethod)
		resp.PaymentMethod = &method
		if order.ExpectedAmount != nil {
			amount := order.ExpectedAmount.StringFixed(order.PaymentMethod.Precision())
			resp.ExpectedAmount = &amount
		}
	}
	return resp
}

func toTargetResponse(order *model.Order, target *model.PaymentTarget, pollInterval time.Duration) dto.PaymentTargetResponse {
	resp := dto.PaymentTargetResponse{
		OrderID:             target.OrderID,
		Status:              string(order.Status),
		Method:              string(target.Method),
		Address:             target.Address,
		SessionID:           target.SessionHandle,
		Recipient:           target.Recipient,
		Memo:                target.Memo,
		PaymentRecordID:     target.PaymentRecordID,
		PollIntervalSeconds: int(pollInterval / time.Second),
	}
	if !target.ExpectedAmount.IsZero() {
		resp.ExpectedAmount = target.ExpectedAmount.StringFixed(target.Method.Precision())
	}
	return resp
}

func toRecordResponse(r model.PaymentRecord) dto.PaymentRecordResponse {
	return dto.PaymentRecordResponse{
		ID:          r.ID,
		PaymentType: string(r.Method),
		Amount:      r.Amount.StringFixed(r.Method.Precision()),
		Description: r.Description,
		OrderID:     r.OrderID,
		UserName:    r.PayerName,
		UserEmail:   r.PayerEmail,
		Reference:   r.Reference,
		Status:      string(r.Status),
		ProcessedAt: r.ProcessedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toProductResponse(p model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price.StringFixed(model.FiatPrecision),
		Quantity:  p.Quantity,
		CreatedAt: p.CreatedAt,
	}
}
