package postgres

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Module opens the PostgreSQL pool and exposes the order, ledger and catalogue repositories.
var Module = fx.Options(
	fx.Provide(newStorage, newRepositories),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

type repositories struct {
	fx.Out

	Orders   repository.OrderRepository
	Payments repository.PaymentRepository
	Products repository.ProductRepository
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

func newRepositories(s *Storage) repositories {
	return repositories{
		Orders:   s.Orders(),
		Payments: s.Payments(),
		Products: s.Products(),
	}
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			storage.Close()
			if logger := storage.Logger(); logger != nil {
				logger.Info("database pool closed")
			}
			return nil
		},
	})
}
