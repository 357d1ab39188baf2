package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/validation"
)

// OrderHandler serves order placement, polling and administration.
type OrderHandler struct {
	facade       OrderFacade
	validator    *validatorv10.Validate
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewOrderHandler creates OrderHandler instance.
func NewOrderHandler(facade OrderFacade, v *validatorv10.Validate, pollInterval time.Duration, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{facade: facade, validator: v, pollInterval: pollInterval, logger: logger}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	draft := model.OrderDraft{
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: req.CustomerPhone,
		Items:         make([]model.DraftItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		draft.Items = append(draft.Items, model.DraftItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.facade.PlaceOrder(c.Request.Context(), draft)
	if err != nil {
		h.logger.Debug("order rejected", slog.Any("error", err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      order.ID,
		"message": "Order created successfully",
		"order":   toOrderResponse(*order, h.pollInterval),
	})
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.facade.Order(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order, h.pollInterval))
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.facade.Orders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]dto.OrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toOrderResponse(order, 0))
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus handles PUT /api/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	order, err := h.facade.SetOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.Info("order status overridden",
		slog.Int64("order_id", id),
		slog.String("status", string(order.Status)),
		slog.String("admin", CurrentAdmin(c)),
	)
	c.JSON(http.StatusOK, toOrderResponse(*order, 0))
}
