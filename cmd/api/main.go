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
	"github.com/rs/zerolog"

	"github.com/peibanapp/peiban-api/internal/config"
	"github.com/peibanapp/peiban-api/internal/database"
	"github.com/peibanapp/peiban-api/internal/handler"
	"github.com/peibanapp/peiban-api/internal/middleware"
	"github.com/peibanapp/peiban-api/internal/models"
	"github.com/peibanapp/peiban-api/internal/repository"
	"github.com/peibanapp/peiban-api/internal/router"
	"github.com/peibanapp/peiban-api/internal/service"
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

	if err := db.AutoMigrate(
		&models.User{},
		&models.Pet{},
		&models.PetInteraction{},
		&models.HealthRecord{},
		&models.HealthAlert{},
		&models.Activity{},
		&models.ActivityParticipant{},
		&models.Guide{},
		&models.GuideStep{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	petRepo := repository.NewPetRepository(db)
	recordRepo := repository.NewHealthRecordRepository(db)
	alertRepo := repository.NewHealthAlertRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	guideRepo := repository.NewGuideRepository(db)

	feedCtx, feedStop := context.WithCancel(context.Background())
	defer feedStop()

	alertFeed := service.NewAlertFeedService(redisClient, cfg.AlertChannelBase, natsConn, logger)
	alertFeed.Start(feedCtx)

	codeSender := service.LogCodeSender{Logger: logger}

	authService := service.NewAuthService(userRepo, redisClient, codeSender, validate, cfg.JWTSecret, cfg.TokenTTL, cfg.VerifyCodeTTL, cfg.VerifyCodeCooldown, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	petService := service.NewPetService(petRepo, validate, cfg.MaxPetsPerUser, logger)
	vitalsService := service.NewVitalsService(recordRepo, alertRepo, alertFeed, validate, logger)
	activityService := service.NewActivityService(activityRepo, validate, logger)
	guideService := service.NewGuideService(guideRepo, validate, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	petHandler := handler.NewPetHandler(petService, logger)
	healthHandler := handler.NewHealthHandler(vitalsService, alertFeed, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)
	guideHandler := handler.NewGuideHandler(guideService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, CORSOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:     authHandler,
		UserHandler:     userHandler,
		PetHandler:      petHandler,
		HealthHandler:   healthHandler,
		ActivityHandler: activityHandler,
		GuideHandler:    guideHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
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
