package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
	"github.com/polkiloo/storefront/internal/server/http/validation"
)

// AuthHandler processes administrator login.
type AuthHandler struct {
	facade    AuthFacade
	validator *validatorv10.Validate
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade, v *validatorv10.Validate) *AuthHandler {
	return &AuthHandler{facade: facade, validator: v}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.AuthRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	token, err := h.facade.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, dto.AuthResponse{Token: token})
}
