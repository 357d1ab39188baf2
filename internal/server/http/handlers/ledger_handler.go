package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/validation"
)

// LedgerHandler serves the PaymentRecords resource.
type LedgerHandler struct {
	facade    LedgerFacade
	validator *validatorv10.Validate
}

// NewLedgerHandler creates LedgerHandler instance.
func NewLedgerHandler(facade LedgerFacade, v *validatorv10.Validate) *LedgerHandler {
	return &LedgerHandler{facade: facade, validator: v}
}

// Create handles POST /api/PaymentRecords.
func (h *LedgerHandler) Create(c *gin.Context) {
	var req dto.CreatePaymentRecordRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	ip := c.ClientIP()
	record, err := h.facade.RecordPayment(c.Request.Context(), model.PaymentDraft{
		Method:      req.PaymentType,
		Amount:      req.Amount,
		OrderID:     req.OrderID,
		PayerName:   req.UserName,
		PayerEmail:  req.UserEmail,
		Description: req.Description,
		Status:      req.Status,
		IPAddress:   &ip,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecordResponse(*record))
}

// List handles GET /api/PaymentRecords, optionally filtered by ?orderId=.
func (h *LedgerHandler) List(c *gin.Context) {
	var orderID *int64
	if raw := c.Query("orderId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
			return
		}
		orderID = &id
	}

	records, err := h.facade.Payments(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]dto.PaymentRecordResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, toRecordResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/PaymentRecords/:id.
func (h *LedgerHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	record, err := h.facade.Payment(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(*record))
}

// UpdateStatus handles PUT /api/PaymentRecords/:id.
func (h *LedgerHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdatePaymentStatusRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	record, err := h.facade.UpdatePaymentStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(*record))
}
