package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikkim/gadgetshop-backend/config"
	"github.com/ikkim/gadgetshop-backend/internal/app/controller"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	"github.com/ikkim/gadgetshop-backend/internal/db"
	"github.com/ikkim/gadgetshop-backend/internal/events"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
	"github.com/ikkim/gadgetshop-backend/internal/router"
	"github.com/ikkim/gadgetshop-backend/internal/scheduler"
	"github.com/ikkim/gadgetshop-backend/internal/storage"
	"github.com/ikkim/gadgetshop-backend/internal/websocket"
	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"github.com/ikkim/gadgetshop-backend/pkg/payment/intent"
	redispkg "github.com/ikkim/gadgetshop-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := cfg.Log.Level
	logFormat := cfg.Log.Format
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting gadget shop backend", map[string]interface{}{
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

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	conn := db.GetDB()

	// Anonymous sessions live in Redis when available, in memory otherwise.
	var sessions service.AnonymousSessionStore
	var blacklist middleware.TokenBlacklist
	var revoker controller.TokenRevoker
	if cfg.Redis.Enabled {
		if err := redispkg.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, using in-memory sessions", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer func() {
				if err := redispkg.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
			sessions = redispkg.NewSessionStore(redispkg.GetClient())
			tokenBlacklist := redispkg.NewTokenBlacklist(redispkg.GetClient())
			blacklist = tokenBlacklist
			revoker = tokenBlacklist
		}
	}
	if sessions == nil {
		memorySessions := redispkg.NewMemorySessionStore()
		defer memorySessions.Close()
		sessions = memorySessions
	}

	var orderEvents service.OrderEventPublisher
	if cfg.Kafka.Enabled {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderEventsTopic)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error("Failed to close Kafka producer", err)
			}
		}()
		orderEvents = producer
	}

	var payments service.PaymentIntentCreator
	if cfg.Payment.SecretKey != "" {
		client, err := intent.NewClient(intent.Config{
			SecretKey:         cfg.Payment.SecretKey,
			BaseURL:           cfg.Payment.BaseURL,
			Currency:          cfg.Payment.Currency,
			MaxNetworkRetries: 2,
		})
		if err != nil {
			logger.Warn("Payment intents disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			payments = client
		}
	}

	var images service.ImageStorage
	if cfg.S3.Bucket != "" {
		images = storage.NewS3Storage(context.Background(), cfg.S3)
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize repositories
	userRepo := repository.NewUserRepository(conn)
	customerRepo := repository.NewCustomerRepository(conn)
	categoryRepo := repository.NewCategoryRepository(conn)
	productRepo := repository.NewProductRepository(conn)
	cartRepo := repository.NewCartRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	identityService := service.NewIdentityService(conn, userRepo, customerRepo, cartRepo, sessions, cfg.Session.TTL)
	cartService := service.NewCartService(conn, cartRepo, productRepo, hub)
	catalogService := service.NewCatalogService(categoryRepo, productRepo)
	adminService := service.NewProductAdminService(conn, categoryRepo, productRepo, cartRepo, cartService, images)
	checkoutService := service.NewCheckoutService(conn, cartRepo, orderRepo, customerRepo, orderEvents, payments)
	orderService := service.NewOrderService(orderRepo)
	profileService := service.NewProfileService(conn, userRepo, customerRepo)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)
	identityMiddleware := middleware.NewIdentityMiddleware(identityService, cfg.Session)

	r := router.NewRouter(
		controller.NewStorefrontController(catalogService, cartService),
		controller.NewCartController(cartService),
		controller.NewCheckoutController(cartService, checkoutService),
		controller.NewProfileController(profileService),
		controller.NewAuthController(authService, identityService, cartService, identityMiddleware, revoker, cfg.JWT.Secret),
		controller.NewCatalogController(catalogService),
		controller.NewProductController(adminService),
		controller.NewUploadController(adminService),
		controller.NewOrderController(orderService),
		controller.NewCartSocketController(hub, cfg.CORS.AllowedOrigins),
		authMiddleware,
		identityMiddleware,
		cfg,
	)

	cleanup := scheduler.NewAnonymousCleanupScheduler(identityService, cfg.Scheduler.AnonymousCleanupSpec, cfg.Scheduler.AnonymousMaxAge)
	if err := cleanup.Start(); err != nil {
		logger.Fatal("Failed to start anonymous cleanup scheduler", err)
	}
	defer cleanup.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
