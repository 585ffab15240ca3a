package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"gedenkseiten/config"
	"gedenkseiten/internal/adapters/auth"
	"gedenkseiten/internal/adapters/email"
	"gedenkseiten/internal/adapters/payment"
	"gedenkseiten/internal/adapters/viewcache"
	delivery "gedenkseiten/internal/delivery/http"
	"gedenkseiten/internal/delivery/http/controllers"
	"gedenkseiten/internal/delivery/http/middleware"
	"gedenkseiten/internal/repository/postgres"
	"gedenkseiten/internal/scheduler"
	"gedenkseiten/internal/services"
)

// @title Gedenkseiten API
// @version 1.0
// @description Backend for obituaries and memorial pages: moderation, publishing tiers, candles, and notifications.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)

	db, err := postgres.Open(cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		logger.Error("run migrations", "err", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("parse redis url", "err", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	memorialRepo := postgres.NewMemorialRepository(db)
	candleRepo := postgres.NewCandleRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	emailQueueRepo := postgres.NewEmailQueueRepository(db)
	templateRepo := postgres.NewEmailTemplateRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	// Adapters
	tokens := auth.NewJWTCodec(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(12)
	renderer := email.NewLiquidRenderer()
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    "Gedenkseiten",
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretKey,
		},
	}, logger)
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}
	checkout := payment.NewHTTPClient(nil, payment.Config{
		BaseURL:   cfg.CheckoutAPIURL,
		SecretKey: cfg.CheckoutSecretKey,
	})
	views := viewcache.NewRedisCounter(redisClient)

	// Services
	timeout := cfg.RequestTimeout
	dispatcher := services.NewNotificationDispatcher(userRepo, notificationRepo, templateRepo, renderer, timeout)
	userService := services.NewUserService(userRepo, hasher, tokens, timeout)
	memorialService := services.NewMemorialService(memorialRepo, userRepo, dispatcher, logger, cfg.PublicBaseURL, timeout)
	moderationService := services.NewModerationService(memorialRepo, dispatcher, logger, cfg.PublicBaseURL, timeout)
	publishingService := services.NewPublishingService(memorialRepo, orderRepo, checkout, dispatcher, logger, cfg.PublicBaseURL, timeout)
	candleService := services.NewCandleService(candleRepo, memorialRepo, timeout)
	notificationService := services.NewNotificationService(notificationRepo, timeout)
	queueService := services.NewEmailQueueService(emailQueueRepo, notificationRepo, mailer, logger, time.Minute)
	sweeperService := services.NewSweeperService(memorialRepo, dispatcher, logger, cfg.PublicBaseURL, time.Minute)
	viewFlushService := services.NewViewFlushService(views, memorialRepo, logger, time.Minute)

	mux := delivery.NewRouter(delivery.RouterDeps{
		Logger:        logger,
		Verifier:      tokens,
		JobToken:      cfg.JobToken,
		Auth:          controllers.NewAuthController(logger, userService),
		Memorials:     controllers.NewMemorialController(logger, memorialService, candleService, views),
		Candles:       controllers.NewCandleController(logger, candleService, memorialService),
		Notifications: controllers.NewNotificationController(logger, notificationService),
		Publishing:    controllers.NewPublishingController(logger, publishingService),
		Admin:         controllers.NewAdminController(logger, moderationService),
		Jobs:          controllers.NewJobsController(logger, queueService, sweeperService, viewFlushService),
	})

	handler := middleware.Logging(logger, middleware.CORS(cfg.CORSAllowedOrigins, mux))

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(queueService, sweeperService, viewFlushService, logger)
		if err := sched.Start(); err != nil {
			logger.Error("start scheduler", "err", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	if sched != nil {
		sched.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
