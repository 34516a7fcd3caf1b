package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hireloop/jobboard-api/internal/ai"
	"github.com/hireloop/jobboard-api/internal/config"
	"github.com/hireloop/jobboard-api/internal/email"
	"github.com/hireloop/jobboard-api/internal/handler"
	applicationHandler "github.com/hireloop/jobboard-api/internal/handler/application"
	authHandler "github.com/hireloop/jobboard-api/internal/handler/auth"
	chatHandler "github.com/hireloop/jobboard-api/internal/handler/chat"
	jobHandler "github.com/hireloop/jobboard-api/internal/handler/job"
	notificationHandler "github.com/hireloop/jobboard-api/internal/handler/notification"
	profileHandler "github.com/hireloop/jobboard-api/internal/handler/profile"
	wsHandler "github.com/hireloop/jobboard-api/internal/handler/ws"
	"github.com/hireloop/jobboard-api/internal/middleware"
	"github.com/hireloop/jobboard-api/internal/realtime"
	"github.com/hireloop/jobboard-api/internal/repository/postgres"
	"github.com/hireloop/jobboard-api/internal/router"
	applicationService "github.com/hireloop/jobboard-api/internal/service/application"
	authService "github.com/hireloop/jobboard-api/internal/service/auth"
	chatService "github.com/hireloop/jobboard-api/internal/service/chat"
	jobService "github.com/hireloop/jobboard-api/internal/service/job"
	notificationService "github.com/hireloop/jobboard-api/internal/service/notification"
	profileService "github.com/hireloop/jobboard-api/internal/service/profile"
	"github.com/hireloop/jobboard-api/pkg/auth"
	"github.com/hireloop/jobboard-api/pkg/logger"
	"github.com/hireloop/jobboard-api/pkg/messaging"
	redisBroker "github.com/hireloop/jobboard-api/pkg/messaging/redis"
	"github.com/hireloop/jobboard-api/pkg/metrics"
	"github.com/hireloop/jobboard-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Logger.Pretty,
	})

	m := metrics.NewMetrics("jobboard")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	profileRepo := postgres.NewProfileRepository(base)
	jobRepo := postgres.NewJobRepository(base)
	applicationRepo := postgres.NewApplicationRepository(base)
	chatRepo := postgres.NewChatRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)

	registry := realtime.NewRegistry(log, m)
	publisher := realtime.NewPublisher(registry, log, m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var broker messaging.Broker
	if cfg.Redis.Enabled {
		broker, err = redisBroker.NewRedisBroker(redisBroker.Config{
			URL: redisURL(cfg.Redis),
		})
		if err != nil {
			log.Fatal(err, "failed to connect to redis")
		}
		defer broker.Close()

		publisher.WithBroker(broker)
		go func() {
			if err := publisher.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error(err, "realtime broker bridge stopped")
			}
		}()
	}

	aiClient := ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Timeout,
		ai.WithLogger(log),
		ai.WithMetrics(m),
		ai.WithModel(cfg.AI.Model),
		ai.WithMaxOutputChars(cfg.AI.MaxOutputChars),
	)
	aiSvc := ai.NewService(aiClient, cfg.AI.CacheTTL)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(0)
	emailSvc := email.NewService(cfg.Email, cfg.Server.FrontendURL, log)

	authSvc := authService.NewService(userRepo, profileRepo, hasher, jwtSvc, emailSvc, log)
	profileSvc := profileService.NewService(profileRepo, userRepo, aiSvc, log)
	jobSvc := jobService.NewService(jobRepo, profileRepo, aiSvc, log)
	notificationSvc := notificationService.NewService(notificationRepo, log)
	applicationSvc := applicationService.NewService(
		applicationRepo, jobRepo, profileRepo, userRepo,
		notificationSvc, publisher, aiSvc, log,
	)
	chatSvc := chatService.NewService(chatRepo, userRepo, notificationSvc, publisher, log)

	authMW := middleware.NewAuthMiddleware(jwtSvc)

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	r := router.NewRouter(
		authMW,
		authHandler.NewHandler(authSvc),
		profileHandler.NewHandler(profileSvc),
		jobHandler.NewHandler(jobSvc, authMW),
		applicationHandler.NewHandler(applicationSvc, authMW),
		chatHandler.NewHandler(chatSvc),
		notificationHandler.NewHandler(notificationSvc),
		wsHandler.NewHandler(registry, chatSvc, corsCfg.AllowOrigins, log),
		handler.NewHandler(db),
		router.Config{
			RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
			RateLimitBurst: cfg.RateLimit.Burst,
			CORS:           corsCfg,
			Timeout:        time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	registry.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "graceful shutdown failed")
	}
}

func redisURL(cfg config.RedisConfig) string {
	if cfg.Password != "" {
		return fmt.Sprintf("redis://:%s@%s/%d", cfg.Password, cfg.Addr, cfg.DB)
	}
	return fmt.Sprintf("redis://%s/%d", cfg.Addr, cfg.DB)
}
