package signature

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module provides the webhook signature verifier.
var Module = fx.Provide(newVerifier)

type verifierParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newVerifier(p verifierParams) *Verifier {
	v := NewVerifier(p.Config.WebhookSecret)
	if !v.Enabled() {
		p.Logger.Warn("webhook secret is not configured, incoming webhooks are accepted without signature verification")
	}
	return v
}
