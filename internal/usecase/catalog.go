package usecase

import (
	"context"
	"strings"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// CatalogUseCase manages products offered by the storefront.
type CatalogUseCase struct {
	products repository.ProductRepository
}

// NewCatalogUseCase constructs CatalogUseCase.
func NewCatalogUseCase(products repository.ProductRepository) *CatalogUseCase {
	return &CatalogUseCase{products: products}
}

// Products lists the catalogue.
func (u *CatalogUseCase) Products(ctx context.Context) ([]model.Product, error) {
	return u.products.List(ctx)
}

// AddProduct stores a new product with a fiat price and initial stock.
func (u *CatalogUseCase) AddProduct(ctx context.Context, product model.Product) (*model.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	product.Category = strings.TrimSpace(product.Category)
	if product.Name == "" || product.Quantity < 0 || product.Price.IsNegative() {
		return nil, domainErrors.ErrInvalidAmount
	}
	if !product.Price.Equal(product.Price.Round(model.FiatPrecision)) {
		return nil, domainErrors.ErrInvalidAmount
	}
	return u.products.Create(ctx, product)
}
