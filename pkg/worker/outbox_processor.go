package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/logger"
	"github.com/hireloop/jobboard-api/pkg/messaging"
	"github.com/hireloop/jobboard-api/pkg/metrics"
)

// channelPrefix namespaces outbox events on the broker so downstream
// consumers can subscribe per event type.
const channelPrefix = "jobboard:events:"

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	RetainFor    time.Duration
}

// OutboxProcessor drains pending outbox rows onto the message broker.
// Failed publishes are rescheduled with a linear backoff until the retry
// budget runs out, then marked failed for manual inspection.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 30 * time.Second
	}
	if config.RetainFor <= 0 {
		config.RetainFor = 7 * 24 * time.Hour
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	p.logger.Info("starting outbox processor",
		"batch_size", p.config.BatchSize,
		"poll_interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox batch")
			}
		case <-cleanup.C:
			cutoff := time.Now().Add(-p.config.RetainFor)
			if removed, err := p.repo.DeleteProcessedBefore(ctx, cutoff); err != nil {
				p.logger.Error(err, "failed to prune processed events")
			} else if removed > 0 {
				p.logger.Info("pruned processed events", "count", removed)
			}
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEvents(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "failed to process outbox event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
		}
	}

	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	err := p.broker.Publish(ctx, channelPrefix+event.EventType, event.Payload)
	if err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		errStr := err.Error()

		if event.RetryCount+1 >= p.config.MaxRetries {
			if updateErr := p.repo.UpdateStatusTx(ctx, nil, event.ID, model.OutboxStatusFailed, &errStr, nil); updateErr != nil {
				p.logger.Error(updateErr, "failed to mark event failed", "event_id", event.ID.String())
			}
			return err
		}

		retryAt := time.Now().Add(p.config.RetryBackoff * time.Duration(event.RetryCount+1))
		if updateErr := p.repo.UpdateStatusTx(ctx, nil, event.ID, model.OutboxStatusPending, &errStr, &retryAt); updateErr != nil {
			p.logger.Error(updateErr, "failed to reschedule event", "event_id", event.ID.String())
		}
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.UpdateStatusTx(ctx, nil, event.ID, model.OutboxStatusProcessed, nil, nil); err != nil {
		p.logger.Error(err, "failed to mark event processed", "event_id", event.ID.String())
		return err
	}

	return nil
}
