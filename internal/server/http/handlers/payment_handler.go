package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/validation"
)

// PaymentHandler issues payment targets and accepts manual confirmations.
type PaymentHandler struct {
	facade       PaymentFacade
	validator    *validatorv10.Validate
	pollInterval time.Duration
}

// NewPaymentHandler creates PaymentHandler instance.
func NewPaymentHandler(facade PaymentFacade, v *validatorv10.Validate, pollInterval time.Duration) *PaymentHandler {
	return &PaymentHandler{facade: facade, validator: v, pollInterval: pollInterval}
}

// GenerateBitcoin handles POST /api/orders/:id/generate-bitcoin-payment.
func (h *PaymentHandler) GenerateBitcoin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	_, target, err := h.facade.DerivePayment(c.Request.Context(), id, string(model.PaymentMethodBitcoin))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BitcoinPaymentResponse{
		BitcoinAddress: target.Address,
		BitcoinAmount:  target.ExpectedAmount.StringFixed(model.OnChainPrecision),
	})
}

// Session handles POST /api/orders/:id/payment-session.
func (h *PaymentHandler) Session(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.PaymentSessionRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	order, target, err := h.facade.DerivePayment(c.Request.Context(), id, req.Method)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTargetResponse(order, target, h.pollInterval))
}

// ConfirmManual handles POST /api/orders/:id/zelle-confirmation.
func (h *PaymentHandler) ConfirmManual(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ManualConfirmationRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	ip := c.ClientIP()
	order, outcome, err := h.facade.ConfirmManual(c.Request.Context(), model.ManualConfirmation{
		OrderID:    id,
		Reference:  strings.TrimSpace(req.Reference),
		PayerName:  req.PayerName,
		PayerEmail: req.PayerEmail,
		IPAddress:  &ip,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OutcomeResponse{Outcome: string(outcome), Status: string(order.Status)})
}
