package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// CurrentAdmin extracts authenticated administrator name from context.
func CurrentAdmin(c *gin.Context) string {
	val, ok := c.Get(middleware.AdminContextKey)
	if !ok {
		return ""
	}
	name, _ := val.(string)
	return name
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return id, true
}

// writeError maps domain errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domainErrors.ErrInvalidAmount),
		errors.Is(err, domainErrors.ErrUnsupportedMethod),
		errors.Is(err, domainErrors.ErrUnknownStatus),
		errors.Is(err, domainErrors.ErrMissingReference),
		errors.Is(err, domainErrors.ErrInvalidOrderIndex):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domainErrors.ErrInsufficientStock):
		status, code = http.StatusBadRequest, "insufficient_stock"
	case errors.Is(err, domainErrors.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, domainErrors.ErrStatusConflict):
		status, code = http.StatusConflict, "status_conflict"
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		status, code = http.StatusConflict, "already_exists"
	case errors.Is(err, domainErrors.ErrRateUnavailable),
		errors.Is(err, domainErrors.ErrGatewayUnavailable):
		status, code = http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	}

	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": code})
		return
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}
