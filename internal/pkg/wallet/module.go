package wallet

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module provides the order address wallet. Startup fails without a valid seed phrase.
var Module = fx.Provide(newWallet)

type walletParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newWallet(p walletParams) (*HDWallet, error) {
	w, err := New(p.Config.SeedPhrase, p.Config.BitcoinNetwork)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("bitcoin wallet ready", slog.String("network", w.Network()))
	return w, nil
}
