package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/server/http/validation"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(validation.New, Setup)
