package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-vetpos/internal/config"
	"go-vetpos/internal/events"
	"go-vetpos/internal/handler"
	"go-vetpos/internal/repository"
	"go-vetpos/internal/service"
	"go-vetpos/internal/worker"
	"go-vetpos/internal/ws"
	"go-vetpos/pkg/database"
	"go-vetpos/pkg/jwt"
	appLogger "go-vetpos/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	envErr := godotenv.Load()
	cfg := config.Load()
	log := appLogger.New(cfg.LogLevel)
	if envErr != nil {
		log.Warn(".env file not found, relying on system env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database(), log)
	if err != nil {
		log.Error("database unavailable", "err", err)
		os.Exit(1)
	}
	defer database.Close(db)
	if err := repository.Migrate(db); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	// 4. Dependency Injection (Wiring Layers)
	tx := database.NewTransactor(db)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	purchaseRepo := repository.NewPurchaseRepo(db)
	userRepo := repository.NewUserRepo(db)
	reportRepo := repository.NewReportRepo(db)

	// The replenisher subscribes to the services' events but is built from
	// them, so subscribers are attached once everything exists.
	publisher := &lateFanout{}

	purchaseService := service.NewPurchaseService(tx, productRepo, supplierRepo, purchaseRepo, publisher, log)
	replenishService := service.NewReplenishService(tx, productRepo, supplierRepo, purchaseRepo, purchaseService, publisher, log)
	salesService := service.NewSalesService(tx, productRepo, saleRepo, publisher, log, service.SalesOptions{
		AllowNegative: cfg.AllowNegative,
		Location:      cfg.Location,
	})
	catalogService := service.NewCatalogService(categoryRepo, supplierRepo, productRepo, publisher, log)
	dashService := service.NewDashboardService(reportRepo, cfg.Location)
	authService := service.NewAuthService(userRepo, jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL))

	replenisher := worker.NewReplenisher(replenishService, cfg.ReplenishEvery, cfg.ReplenishOnSale, log)

	// 5. Event stream. With Kafka configured, the replenisher consumes the
	// topic so every API instance shares one trigger source.
	pub := events.Fanout{wsHub}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		pub = append(pub, kafkaPub)
		go events.Consume(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, replenisher, log)
		log.Info("kafka event stream enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		pub = append(pub, replenisher)
	}
	publisher.set(pub)

	replenisher.Start(ctx)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "VetPOS Inventory v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	handler.Register(app, handler.Services{
		Auth:      authService,
		Catalog:   catalogService,
		Sales:     salesService,
		Purchases: purchaseService,
		Replenish: replenishService,
		Dashboard: dashService,
		Hub:       wsHub,
		Location:  cfg.Location,
		Log:       log,
	})

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		log.Error("server forced to shutdown", "err", err)
	}
	replenisher.Stop()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.Error("closing kafka writer", "err", err)
		}
	}
	log.Info("server exited")
}
