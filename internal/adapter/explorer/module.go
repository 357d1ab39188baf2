package explorer

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module exposes explorer client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// newClient returns nil when no explorer is configured; the watcher stays off then.
func newClient(p clientParams) (Client, error) {
	if p.Config.ExplorerAPIAddress == "" {
		return nil, nil
	}
	return NewHTTPClient(p.Config.ExplorerAPIAddress, p.Logger)
}
