package rates

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module exposes the BTC rate provider to fx graph.
var Module = fx.Provide(newProvider)

type providerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// newProvider uses a configured fixed rate over the live API.
func newProvider(p providerParams) (Provider, error) {
	if p.Config.FixedBTCRate.IsPositive() {
		p.Logger.Warn("using fixed btc rate", slog.String("rate", p.Config.FixedBTCRate.String()))
		return FixedProvider{Rate: p.Config.FixedBTCRate}, nil
	}
	return NewHTTPProvider(p.Config.RatesAPIAddress, p.Logger)
}
