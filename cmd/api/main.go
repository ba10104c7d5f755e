package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drl-go-api/internal/config"
	"github.com/noah-isme/drl-go-api/internal/database"
	"github.com/noah-isme/drl-go-api/internal/handler"
	"github.com/noah-isme/drl-go-api/internal/middleware"
	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/repository"
	"github.com/noah-isme/drl-go-api/internal/router"
	"github.com/noah-isme/drl-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Activity{}, &models.Registration{}, &models.Student{}, &models.DecisionLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var notifier service.Notifier = service.NewLogNotifier(logger)
	if cfg.NATSURL != "" {
		natsConn, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		notifier = service.NewNATSNotifier(natsConn, "", logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	decisionLogRepo := repository.NewDecisionLogRepository(db)
	ledger := repository.NewCapacityLedger(db)
	sessionStore := repository.NewQRSessionStore(redisClient)

	authority := service.NewAuthorityResolver(studentRepo)

	activityService := service.NewActivityService(activityRepo, decisionLogRepo, validate, logger)
	registrationService := service.NewRegistrationService(registrationRepo, activityRepo, ledger, decisionLogRepo, authority, notifier, validate, logger)
	qrService := service.NewQRService(sessionStore, registrationRepo, activityRepo, decisionLogRepo, authority, notifier, cfg.QRSessionTTL, cfg.QRGrace, logger)

	activityHandler := handler.NewActivityHandler(activityService, logger)
	registrationHandler := handler.NewRegistrationHandler(registrationService, logger)
	qrHandler := handler.NewQRHandler(qrService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:     activityHandler,
		RegistrationHandler: registrationHandler,
		QRHandler:           qrHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
