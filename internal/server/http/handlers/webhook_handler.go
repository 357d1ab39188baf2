package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/pkg/signature"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/validation"
)

const maxWebhookBody = 1 << 20

// WebhookHandler accepts signed payment notifications.
type WebhookHandler struct {
	facade    PaymentFacade
	verifier  *signature.Verifier
	validator *validatorv10.Validate
	logger    *slog.Logger
}

// NewWebhookHandler creates WebhookHandler instance.
func NewWebhookHandler(facade PaymentFacade, verifier *signature.Verifier, v *validatorv10.Validate, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{facade: facade, verifier: verifier, validator: v, logger: logger}
}

// OnChain handles POST /api/orders/bitcoin-payment-webhook.
func (h *WebhookHandler) OnChain(c *gin.Context) {
	body, ok := h.readVerified(c)
	if !ok {
		return
	}
	var req dto.OnChainWebhookRequest
	if err := validation.DecodeAndValidate(c, body, &req, h.validator); err != nil {
		return
	}

	outcome, err := h.facade.ApplyOnChain(c.Request.Context(), model.OnChainConfirmation{
		OrderID:       req.OrderID,
		TransactionID: strings.TrimSpace(req.TransactionID),
		Amount:        req.Amount,
		Confirmations: *req.Confirmations,
	})
	if err != nil {
		h.logger.Error("failed to apply on-chain confirmation", slog.Int64("order_id", req.OrderID), slog.Any("error", err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OutcomeResponse{Outcome: string(outcome)})
}

// Capture handles POST /api/orders/processor-webhook.
func (h *WebhookHandler) Capture(c *gin.Context) {
	body, ok := h.readVerified(c)
	if !ok {
		return
	}
	var req dto.CaptureWebhookRequest
	if err := validation.DecodeAndValidate(c, body, &req, h.validator); err != nil {
		return
	}

	outcome, err := h.facade.ApplyCapture(c.Request.Context(), model.CaptureResult{
		OrderID:   req.OrderID,
		SessionID: strings.TrimSpace(req.SessionID),
		CaptureID: strings.TrimSpace(req.CaptureID),
		Status:    model.CaptureStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		Amount:    req.Amount,
	})
	if err != nil {
		h.logger.Error("failed to apply capture", slog.Int64("order_id", req.OrderID), slog.Any("error", err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OutcomeResponse{Outcome: string(outcome)})
}

// readVerified reads the whole body and checks its signature before anything parses it.
func (h *WebhookHandler) readVerified(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body_too_large"})
			return nil, false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
		return nil, false
	}

	if !h.verifier.Enabled() {
		h.logger.Warn("webhook accepted without signature verification", slog.String("path", c.FullPath()))
		return body, true
	}
	if err := h.verifier.Verify(body, c.GetHeader(signature.HeaderName)); err != nil {
		h.logger.Warn("webhook signature rejected",
			slog.String("path", c.FullPath()),
			slog.String("ip", c.ClientIP()),
			slog.Any("error", err),
		)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_signature"})
		return nil, false
	}
	return body, true
}
