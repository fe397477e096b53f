// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"payvo/internal/config"
	"payvo/internal/handlers"
	"payvo/internal/jobs"
	"payvo/internal/middleware"
	"payvo/internal/models"
	"payvo/internal/repositories"
	"payvo/internal/services/admin"
	"payvo/internal/services/cashback"
	"payvo/internal/services/events"
	"payvo/internal/services/fees"
	"payvo/internal/services/ledger"
	"payvo/internal/services/limits"
	"payvo/internal/services/payment"
	"payvo/internal/services/wallet"
)

// SetupRoutes wires repositories, services and handlers, registers every
// route group, and returns the background job scheduler for the caller to
// start.
func SetupRoutes(app *fiber.App, db *gorm.DB) *jobs.Scheduler {
	// Repositories
	walletRepo := repositories.NewWalletRepository(db)
	configRepo := repositories.NewConfigRepository(db)
	cacheRepo := repositories.NewRedisCacheRepository(
		repositories.RedisClient,
		config.GetDurationEnv("WALLET_CACHE_TTL", 5*time.Minute),
	)

	// Services, dependency order
	publisher := events.NewRedisPublisher(repositories.RedisClient)
	walletService := wallet.NewService(walletRepo, cacheRepo, wallet.Config{}, &wallet.NoopMetricsCollector{})
	enforcer := limits.NewEnforcer(limits.DefaultConfig(), walletService)
	ledgerService := ledger.NewService(walletRepo, walletService, enforcer, publisher)
	feeCalculator := fees.NewCalculator(configRepo)
	cashbackEngine := cashback.NewEngine(configRepo)
	paymentService := payment.NewService(walletService, ledgerService, feeCalculator, cashbackEngine, enforcer, publisher)
	adminGateway := admin.NewGateway(walletService, ledgerService, enforcer, publisher)

	sweeper := ledger.NewSweeper(ledgerService, walletRepo,
		config.GetDurationEnv("PENDING_TIMEOUT", 15*time.Minute))
	scheduler := jobs.NewScheduler(sweeper, enforcer, walletRepo)

	// Handlers
	walletHandler := handlers.NewWalletHandler(walletService, ledgerService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, walletService)
	adminHandler := handlers.NewAdminHandler(adminGateway)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Payvo API",
			"version": "1.0.0",
			"docs":    "/api",
		})
	})
	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	// Provider callbacks arrive unauthenticated; the reference is the only
	// shared secret and replays are harmless.
	api.Post("/callbacks/:reference", paymentHandler.ProviderCallback)

	authMiddleware := middleware.NewAuthMiddleware(config.GetEnv("JWT_SECRET", ""))
	protected := api.Use(authMiddleware.Handler)

	setupWalletRoutes(protected, walletHandler)
	setupPaymentRoutes(protected, paymentHandler)
	setupAdminRoutes(protected, adminHandler)

	return scheduler
}

func setupWalletRoutes(router fiber.Router, h *handlers.WalletHandler) {
	wallets := router.Group("/wallets")
	wallets.Post("/", middleware.HasPermission(models.PermissionWalletWrite), h.CreateWallet)
	wallets.Get("/:id", middleware.HasPermission(models.PermissionWalletRead), h.GetWallet)
	wallets.Get("/:id/balance", middleware.HasPermission(models.PermissionWalletRead), h.GetBalance)
	wallets.Get("/:id/transactions", middleware.HasPermission(models.PermissionTransactionRead), h.GetTransactionHistory)
}

func setupPaymentRoutes(router fiber.Router, h *handlers.PaymentHandler) {
	router.Post("/purchases", middleware.HasPermission(models.PermissionWalletWrite), h.Purchase)
	router.Post("/withdrawals", middleware.HasPermission(models.PermissionWalletWrite), h.Withdraw)
	router.Post("/deposits", middleware.HasPermission(models.PermissionWalletWrite), h.Deposit)
	router.Post("/transfers", middleware.HasPermission(models.PermissionWalletWrite), h.Transfer)
}

// Admin overrides live on the wallet and transaction resources themselves,
// gated on the admin role claim.
func setupAdminRoutes(router fiber.Router, h *handlers.AdminHandler) {
	wallets := router.Group("/wallets", middleware.AdminAuthMiddleware, middleware.HasPermission(models.PermissionWriteAdmin))
	wallets.Post("/:id/lock", h.LockWallet)
	wallets.Post("/:id/unlock", h.UnlockWallet)
	wallets.Post("/:id/adjust", h.AdjustBalance)
	wallets.Post("/:id/reset-limits", h.ResetLimits)

	router.Post("/transactions/:id/reverse", middleware.AdminAuthMiddleware, middleware.HasPermission(models.PermissionWriteAdmin), h.ReverseTransaction)
}
