package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stockpos/internal/config"
	"stockpos/internal/database"
	"stockpos/internal/logging"
	"stockpos/internal/repositories"
	"stockpos/internal/server"
	"stockpos/internal/services"
	"stockpos/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.Setup(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// --- Database ---
	db, err := database.Open(cfg.Database)
	if err != nil {
		zap.S().Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		zap.S().Fatalf("Failed to migrate database: %v", err)
	}
	zap.S().Infof("Database connection successful, driver: %s", cfg.Database.Driver)

	productRepo := repositories.NewGORMProductRepository(db)
	saleRepo := repositories.NewGORMSaleRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	ledger := repositories.NewStockLedger(productRepo, saleRepo)

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQ.Enabled {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
			Queue:    cfg.RabbitMQ.Queue,
		})
		if err != nil {
			zap.S().Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		err = mqClient.ConsumeEvents(func(msg amqp.Delivery) error {
			return services.LogInventoryEvent(msg.RoutingKey, msg.Body)
		})
		if err != nil {
			zap.S().Errorf("Failed to start inventory event consumer: %v", err)
		}
	} else {
		zap.S().Info("RabbitMQ disabled, inventory events will not be published")
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL)
	saleService := services.NewSaleService(ledger, saleRepo, publisher, services.SaleSettings{
		LowStockThreshold:  cfg.Inventory.LowStockThreshold,
		MaxConflictRetries: cfg.Sale.MaxConflictRetries,
	})
	svc := server.Services{
		Auth:      authService,
		Products:  services.NewProductService(productRepo, cfg.Inventory.LowStockThreshold),
		Sales:     saleService,
		Dashboard: services.NewDashboardService(productRepo, saleRepo, cfg.Dashboard.SalesWindowDays, cfg.Inventory.LowStockThreshold),
		Users:     services.NewUserService(userRepo),
	}

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := authService.EnsureAdmin(context.Background(), cfg.Admin.Email, cfg.Admin.Password); err != nil {
			zap.S().Errorf("Failed to seed admin account: %v", err)
		}
	}

	app := server.New(svc, server.Options{AccessLog: true})

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zap.S().Infof("Starting server on %s", cfg.App.Port)
		if err := app.Listen(cfg.App.Port); err != nil {
			zap.S().Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	zap.S().Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		zap.S().Errorf("Error during Fiber shutdown: %v", err)
	}
	zap.S().Info("Server gracefully stopped")
}
