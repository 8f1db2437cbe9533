package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitaboost/storefront/config"
	"github.com/vitaboost/storefront/internal/app/controller"
	"github.com/vitaboost/storefront/internal/app/repository"
	"github.com/vitaboost/storefront/internal/app/service"
	"github.com/vitaboost/storefront/internal/db"
	"github.com/vitaboost/storefront/internal/middleware"
	"github.com/vitaboost/storefront/internal/router"
	"github.com/vitaboost/storefront/internal/scheduler"
	"github.com/vitaboost/storefront/internal/storage"
	ws "github.com/vitaboost/storefront/internal/websocket"
	"github.com/vitaboost/storefront/pkg/logger"
	"github.com/vitaboost/storefront/pkg/payment/intent"
	"github.com/vitaboost/storefront/pkg/payment/stripe"
	"github.com/vitaboost/storefront/pkg/redis"
	"github.com/vitaboost/storefront/pkg/woocommerce"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.IsDevelopment() {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
		Service:     "storefront",
	})

	logger.Info("Starting storefront server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Key-value store for carts and the catalog cache
	var store repository.KeyValueStore
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		store = redis.NewStore(nil, cfg.Redis.KeyPrefix)
	} else {
		logger.Warn("REDIS_HOST not set, carts are kept in memory", nil)
		store = repository.NewMemoryStore()
	}

	// Initialize repositories
	cartRepo := repository.NewCartRepository(store, cfg.Session.CartTTL)
	placedOrderRepo := repository.NewPlacedOrderRepository(db.GetDB())
	reconciliationRepo := repository.NewReconciliationRepository(db.GetDB())

	// External clients
	var processor service.PaymentProcessor
	if cfg.Payment.Stripe.SecretKey != "" {
		stripeClient, err := stripe.NewClient(stripe.Config{
			SecretKey:      cfg.Payment.Stripe.SecretKey,
			PublishableKey: cfg.Payment.Stripe.PublishableKey,
			APIURL:         cfg.Payment.Stripe.APIURL,
			Timeout:        cfg.Catalog.Timeout,
		})
		if err != nil {
			logger.Fatal("Failed to create Stripe client", err)
		}
		processor = stripeClient
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, payments are unavailable", nil)
	}

	wooClient, err := woocommerce.NewClient(woocommerce.Config{
		BaseURL:        cfg.Catalog.BaseURL,
		PublicURL:      cfg.Catalog.PublicURL,
		ConsumerKey:    cfg.Catalog.ConsumerKey,
		ConsumerSecret: cfg.Catalog.ConsumerSecret,
		Timeout:        cfg.Catalog.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create WooCommerce client", err)
	}
	defer wooClient.Close()
	if !wooClient.HasCredentials() {
		logger.Warn("WooCommerce credentials not set, orders cannot be created", nil)
	}

	// Initialize services
	paymentService := service.NewPaymentService(processor, cfg.Payment.Stripe.PublishableKey)
	productService := service.NewProductService(wooClient, store, cfg.Catalog.CacheTTL)
	cartService := service.NewCartService(cartRepo)
	reconciliationService := service.NewReconciliationService(reconciliationRepo)

	var intents intent.Creator
	if cfg.Payment.IntentURL != "" {
		intentClient := intent.NewClient(cfg.Payment.IntentURL, cfg.Catalog.Timeout)
		defer intentClient.Close()
		intents = intentClient
	} else {
		intents = service.NewInProcessIntentClient(paymentService)
	}

	hub := ws.NewHub()
	go hub.Run()

	deps := service.CheckoutDependencies{
		Carts:           cartService,
		Intents:         intents,
		Orders:          wooClient,
		PlacedOrders:    placedOrderRepo,
		Reconciliations: reconciliationService,
		Events:          hub,
		PublishableKey:  cfg.Payment.Stripe.PublishableKey,
	}
	if paymentService.Configured() {
		deps.Verifier = paymentService
	}
	checkoutService := service.NewCheckoutService(deps, service.CheckoutConfig{
		Currency:     cfg.Checkout.Currency,
		TaxRate:      decimal.NewFromFloat(cfg.Checkout.TaxRate),
		Country:      cfg.Checkout.Country,
		OrderTimeout: cfg.Catalog.Timeout,
	})

	var uploader storage.Uploader
	if cfg.S3.Bucket != "" {
		s3Storage, err := storage.NewS3Storage(context.Background(), &cfg.S3)
		if err != nil {
			logger.Fatal("Failed to configure export storage", err)
		}
		uploader = s3Storage
	}

	// Initialize controllers
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService, productService, cfg.Checkout.MaxQuantity)
	paymentController := controller.NewPaymentController(paymentService, controller.StorefrontSettings{
		Currency:    cfg.Checkout.Currency,
		TaxRate:     cfg.Checkout.TaxRate,
		MaxQuantity: cfg.Checkout.MaxQuantity,
	})
	checkoutController := controller.NewCheckoutController(checkoutService, hub, cfg.CORS.AllowedOrigins)
	reconciliationController := controller.NewReconciliationController(reconciliationService, uploader)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(
		cfg.Session.Secret,
		cfg.Session.CookieName,
		cfg.Session.TTL,
		cfg.Server.IsProduction(),
		cfg.Admin.TokenHash,
	)

	// Setup router
	r := router.NewRouter(
		productController,
		cartController,
		paymentController,
		checkoutController,
		reconciliationController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	housekeeping := scheduler.NewHousekeepingScheduler(cartService, checkoutService, reconciliationService, cfg.Session.IdleEvict)
	if err := housekeeping.Start(); err != nil {
		logger.Fatal("Failed to start housekeeping scheduler", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	housekeeping.Stop()
	hub.Stop()
	// flushes pending cart writes
	cartService.Close()

	logger.Info("Server stopped successfully")
}
