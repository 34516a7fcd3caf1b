package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hireloop/jobboard-api/internal/config"
	"github.com/hireloop/jobboard-api/internal/repository/postgres"
	"github.com/hireloop/jobboard-api/pkg/logger"
	redisBroker "github.com/hireloop/jobboard-api/pkg/messaging/redis"
	"github.com/hireloop/jobboard-api/pkg/metrics"
	"github.com/hireloop/jobboard-api/pkg/worker"
)

// workerConfig carries the worker-only tunables. Everything shared with
// the API process still comes from the yaml config; these are knobs an
// operator adjusts per deployment, so they are plain env vars.
type workerConfig struct {
	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	MaxRetries   int           `envconfig:"OUTBOX_MAX_RETRIES" default:"5"`
	RetryBackoff time.Duration `envconfig:"OUTBOX_RETRY_BACKOFF" default:"30s"`
	RetainFor    time.Duration `envconfig:"OUTBOX_RETAIN_FOR" default:"168h"`
	HealthPort   int           `envconfig:"WORKER_HEALTH_PORT" default:"8081"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var wcfg workerConfig
	if err := envconfig.Process("", &wcfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load worker configuration: %v\n", err)
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

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL: redisURL(cfg.Redis),
	})
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:    wcfg.BatchSize,
			PollInterval: wcfg.PollInterval,
			MaxRetries:   wcfg.MaxRetries,
			RetryBackoff: wcfg.RetryBackoff,
			RetainFor:    wcfg.RetainFor,
		},
		log,
		metrics.NewMetrics("jobboard_worker"),
	)

	startHealthServer(wcfg.HealthPort, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	processor.Start(ctx)
}

func startHealthServer(port int, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			log.Error(err, "health server failed")
		}
	}()
}

func redisURL(cfg config.RedisConfig) string {
	if cfg.Password != "" {
		return fmt.Sprintf("redis://:%s@%s/%d", cfg.Password, cfg.Addr, cfg.DB)
	}
	return fmt.Sprintf("redis://%s/%d", cfg.Addr, cfg.DB)
}
