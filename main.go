package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/config"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/events"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/handlers"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/middleware"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/services"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/store"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/utils"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/logger"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Info("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := config.Load()
	defer logger.Init("food-rescue", cfg.Server.Verbose, false, io.Discard).Close()

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	st := store.NewGormStore(db)
	if err := st.AutoMigrate(); err != nil {
		logger.Fatalf("failed to migrate database: %v", err)
	}

	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
		logger.Infof("✅ Publishing events to kafka topic %s", cfg.Kafka.Topic)
	}

	var photos services.PhotoStorage
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Storage(ctx, utils.R2Options{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			AccessKeySecret: cfg.R2.AccessKeySecret,
			Bucket:          cfg.R2.Bucket,
			CDNBaseURL:      cfg.R2.CDNBaseURL,
		})
		if err != nil {
			logger.Fatalf("failed to initialize R2 client: %v", err)
		}
		photos = r2
	} else {
		logger.Warning("⚠️  R2 not configured, donation photos will not be stored")
	}

	auditor := services.NewAuditGateway(services.AuditConfig{
		APIKey:  cfg.Audit.APIKey,
		Model:   cfg.Audit.Model,
		BaseURL: cfg.Audit.BaseURL,
	}, &http.Client{Timeout: cfg.Audit.Timeout + 5*time.Second})

	pointsService := services.NewPointsService(st, publisher)
	donationService := services.NewDonationService(st, auditor, photos, publisher, pointsService)
	donationService.AuditTimeout = cfg.Audit.Timeout
	claimService := services.NewClaimService(st, publisher, pointsService)

	scheduler, err := pointsService.StartPointsScheduler(ctx, cfg.Points.RefreshInterval)
	if err != nil {
		logger.Fatalf("failed to start points scheduler: %v", err)
	}
	defer scheduler.Shutdown()

	if cfg.Sync.ServiceURL != "" {
		workers.NewActorSyncWorker(st, cfg.Sync.ServiceURL, cfg.Sync.Path, cfg.Sync.ServiceToken, cfg.Sync.Interval).Start(ctx)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024,
	})

	app.Use(middleware.GatewayAuthMiddleware(cfg.Server.GatewayToken, "/health"))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-User-Name",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routers := handlers.NewRouters(app)
	handlers.SetupDonationRoutes(routers, donationService, claimService)
	handlers.SetupClaimRoutes(routers, claimService)
	handlers.SetupProgressionRoutes(routers, pointsService)

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Errorf("Server error: %v", err)
			stop()
		}
	}()

	logger.Infof("✅ Server running on http://localhost:%s", cfg.Server.Port)
	logger.Infof("✅ CORS configured for origins: %s", strings.Join(cfg.Server.AllowedOrigins, ","))

	<-ctx.Done()
	logger.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
