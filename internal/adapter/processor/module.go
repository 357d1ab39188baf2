package processor

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module exposes the processor gateway to fx graph.
var Module = fx.Provide(newGateway)

type gatewayParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newGateway(p gatewayParams) (Gateway, error) {
	if p.Config.ProcessorAPIAddress == "" {
		p.Logger.Info("processor api not configured, issuing local session handles")
		return LocalGateway{}, nil
	}
	return NewHTTPGateway(p.Config.ProcessorAPIAddress, p.Config.ProcessorAPIKey, p.Logger)
}
