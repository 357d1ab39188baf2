package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/explorer"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/usecase"
	"github.com/polkiloo/storefront/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newFacade,
		newHTTPServer,
		newPaymentWatcher,
		newStaleSweeper,
	),
	fx.Invoke(registerLifecycle),
)

type facadeParams struct {
	fx.In

	Auth      *usecase.AuthUseCase
	Orders    *usecase.OrderUseCase
	Catalog   *usecase.CatalogUseCase
	Ledger    *usecase.LedgerUseCase
	Payments  *usecase.PaymentUseCase
	Reconcile *usecase.ReconcileUseCase
	Explorer  explorer.Client `optional:"true"`
	Health    HealthChecker
}

func newFacade(p facadeParams) *StorefrontFacade {
	return NewStorefrontFacade(FacadeDeps{
		Auth:      p.Auth,
		Orders:    p.Orders,
		Catalog:   p.Catalog,
		Ledger:    p.Ledger,
		Payments:  p.Payments,
		Reconcile: p.Reconcile,
		Explorer:  p.Explorer,
		Health:    p.Health,
	})
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:              p.Config.RunAddress,
		Handler:           p.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

type workerParams struct {
	fx.In

	Facade   *StorefrontFacade
	Explorer explorer.Client `optional:"true"`
	Config   *config.Config
	Logger   *slog.Logger
}

// newPaymentWatcher returns nil when no explorer is configured.
func newPaymentWatcher(p workerParams) *worker.PaymentWatcher {
	if p.Explorer == nil {
		return nil
	}
	return worker.NewPaymentWatcher(
		p.Facade,
		p.Config.WatchInterval,
		p.Config.MaxOrdersBatch,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

func newStaleSweeper(p workerParams) *worker.StaleSweeper {
	return worker.NewStaleSweeper(
		p.Facade,
		p.Config.StaleOrderTTL,
		p.Config.SweepInterval,
		p.Config.MaxOrdersBatch,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Watcher    *worker.PaymentWatcher
	Sweeper    *worker.StaleSweeper
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting storefront",
				slog.String("addr", p.Server.Addr),
				slog.Bool("watcher", p.Watcher != nil),
				slog.Duration("stale_order_ttl", p.Config.StaleOrderTTL),
			)
			// Workers outlive the start context.
			runCtx := context.WithoutCancel(ctx)
			if p.Watcher != nil {
				p.Watcher.Start(runCtx)
			}
			p.Sweeper.Start(runCtx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			err := p.Server.Shutdown(shutdownCtx)
			if p.Watcher != nil {
				p.Watcher.Stop()
			}
			p.Sweeper.Stop()

			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("storefront stopped")
			return nil
		},
	})
}
