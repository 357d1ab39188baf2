package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/explorer"
	"github.com/polkiloo/storefront/internal/adapter/notify"
	"github.com/polkiloo/storefront/internal/adapter/processor"
	"github.com/polkiloo/storefront/internal/adapter/rates"
	"github.com/polkiloo/storefront/internal/app"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/logger"
	"github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/pkg/signature"
	"github.com/polkiloo/storefront/internal/pkg/wallet"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/router"
	"github.com/polkiloo/storefront/internal/storage/postgres"
	"github.com/polkiloo/storefront/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		signature.Module,
		wallet.Module,
		postgres.Module,
		explorer.Module,
		rates.Module,
		processor.Module,
		notify.Module,
		usecase.Module,
		fx.Provide(
			func(w *wallet.HDWallet) usecase.AddressDeriver { return w },
			func(p rates.Provider) usecase.RateProvider { return p },
			func(g processor.Gateway) usecase.SessionGateway { return g },
			func(n notify.Notifier) usecase.Notifier { return n },
			func(s *postgres.Storage) app.HealthChecker { return s },
			func(f *app.StorefrontFacade) handlers.StorefrontFacade { return f },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
