package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// ProductRepository exposes the catalogue used by checkout.
type ProductRepository interface {
	Create(ctx context.Context, product model.Product) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
}
