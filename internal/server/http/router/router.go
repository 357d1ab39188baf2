package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/pkg/signature"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(
	facade handlers.StorefrontFacade,
	cfg *config.Config,
	verifier *signature.Verifier,
	validator *validatorv10.Validate,
	logger *slog.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.CORS(cfg.CORSOrigins))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade, validator)
	orderHandler := handlers.NewOrderHandler(facade, validator, cfg.ClientPollInterval, logger)
	paymentHandler := handlers.NewPaymentHandler(facade, validator, cfg.ClientPollInterval)
	webhookHandler := handlers.NewWebhookHandler(facade, verifier, validator, logger)
	ledgerHandler := handlers.NewLedgerHandler(facade, validator)
	productHandler := handlers.NewProductHandler(facade, validator)
	healthHandler := handlers.NewHealthHandler(facade)
	admin := middleware.AdminRequired(facade)

	hooks := engine.Group("/api/orders", middleware.RequireIdentityEncoding())
	hooks.POST("/bitcoin-payment-webhook", webhookHandler.OnChain)
	hooks.POST("/processor-webhook", webhookHandler.Capture)

	api := engine.Group("/api", middleware.DecompressRequest())
	api.GET("/health", healthHandler.Health)
	api.POST("/auth/login", authHandler.Login)

	orders := api.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("", admin, orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.PUT("/:id/status", admin, orderHandler.UpdateStatus)
	orders.POST("/:id/generate-bitcoin-payment", paymentHandler.GenerateBitcoin)
	orders.POST("/:id/payment-session", paymentHandler.Session)
	orders.POST("/:id/zelle-confirmation", paymentHandler.ConfirmManual)

	records := api.Group("/PaymentRecords")
	records.POST("", ledgerHandler.Create)
	records.GET("", admin, ledgerHandler.List)
	records.GET("/:id", ledgerHandler.Get)
	records.PUT("/:id", ledgerHandler.UpdateStatus)

	products := api.Group("/products")
	products.GET("", productHandler.List)
	products.POST("", admin, productHandler.Create)

	return engine
}
