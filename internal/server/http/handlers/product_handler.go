package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/validation"
)

// ProductHandler serves the catalogue.
type ProductHandler struct {
	facade    CatalogFacade
	validator *validatorv10.Validate
}

// NewProductHandler creates ProductHandler instance.
func NewProductHandler(facade CatalogFacade, v *validatorv10.Validate) *ProductHandler {
	return &ProductHandler{facade: facade, validator: v}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.facade.Products(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	product, err := h.facade.AddProduct(c.Request.Context(), model.Product{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(*product))
}
