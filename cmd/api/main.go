package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukahub/pos-api/internal/config"
	"github.com/dukahub/pos-api/internal/delivery/events"
	httpDelivery "github.com/dukahub/pos-api/internal/delivery/http"
	"github.com/dukahub/pos-api/internal/delivery/http/handler"
	"github.com/dukahub/pos-api/internal/gateway/mpesa"
	pkgCache "github.com/dukahub/pos-api/internal/pkg/cache"
	"github.com/dukahub/pos-api/internal/pkg/database"
	"github.com/dukahub/pos-api/internal/pkg/logger"
	cacheRepo "github.com/dukahub/pos-api/internal/repository/cache"
	"github.com/dukahub/pos-api/internal/repository/postgres"
	"github.com/dukahub/pos-api/internal/usecase/auth"
	"github.com/dukahub/pos-api/internal/usecase/checkout"
	"github.com/dukahub/pos-api/internal/usecase/inventory"
	"github.com/dukahub/pos-api/internal/usecase/report"
	"github.com/dukahub/pos-api/internal/usecase/settings"

	_ "github.com/dukahub/pos-api/docs"
)

// @title Duka POS API
// @version 1.0
// @description Point of sale and inventory API with atomic sale commits, stock guards, and dashboard reporting.

// @contact.name API Support
// @contact.url http://github.com/dukahub/pos-api

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Sales
// @tag.description Sale transaction endpoints

// @tag.name Products
// @tag.description Product and inventory management endpoints

// @tag.name Dashboard
// @tag.description Reporting and dashboard endpoints

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting Duka POS API...")

	if cfg.Auth.JWTSecret == "" {
		appLogger.Fatal("JWT_SECRET must be set", fmt.Errorf("empty JWT secret"))
	}

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL successfully")

	appLogger.Info("Running migrations...")
	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", err)
	}

	appLogger.Info("Connecting to Redis...")
	redisClient, err := pkgCache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	streamConfig := events.NewStreamConfig(publisher.JetStream(), appLogger)
	if err := streamConfig.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}

	productRepo := postgres.NewProductRepository(db)
	saleRepo := postgres.NewSaleRepository(db)
	userRepo := postgres.NewUserRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.DashboardTTL,
		cfg.Cache.ProductListTTL,
	)

	checkoutService := checkout.NewService(saleRepo, redisCache, publisher, appLogger)
	inventoryService := inventory.NewService(productRepo, redisCache, appLogger)
	reportService := report.NewService(reportRepo, productRepo, redisCache, appLogger)
	authService := auth.NewService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, appLogger)
	settingsService := settings.NewService(settingsRepo, appLogger)
	mpesaClient := mpesa.NewClient(cfg, appLogger)

	productHandler := handler.NewProductHandler(inventoryService, appLogger)
	saleHandler := handler.NewSaleHandler(checkoutService, appLogger)
	dashboardHandler := handler.NewDashboardHandler(reportService, appLogger)
	userHandler := handler.NewUserHandler(authService, appLogger)
	settingsHandler := handler.NewSettingsHandler(settingsService, appLogger)
	paymentHandler := handler.NewPaymentHandler(mpesaClient, appLogger)

	router := httpDelivery.NewRouter(
		productHandler,
		saleHandler,
		dashboardHandler,
		userHandler,
		settingsHandler,
		paymentHandler,
		authService,
		cfg,
		appLogger,
	)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
