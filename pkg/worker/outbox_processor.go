// Package worker drains the transactional outbox onto the message broker
// and runs the portal's background sweeps.
package worker

import (
	"context"
	"time"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
	"github.com/carebridge/portal-api/pkg/logger"
	"github.com/carebridge/portal-api/pkg/messaging"
	"github.com/carebridge/portal-api/pkg/metrics"
)

type OutboxConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// OutboxProcessor polls pending outbox events and publishes them to the
// broker on a channel named after the event type. Events that keep failing
// past the retry budget are parked as failed.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	cfg     OutboxConfig
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	cfg OutboxConfig,
	m *metrics.Metrics,
	log *logger.Logger,
) *OutboxProcessor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Minute
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		cfg:     cfg,
		metrics: m,
		logger:  log,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxProcessor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.logger.Info("outbox processor started",
		"batch_size", p.cfg.BatchSize,
		"poll_interval", p.cfg.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor stopped")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error(err, "outbox batch failed")
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	events, err := p.repo.GetPendingEvents(ctx, p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		p.process(ctx, event)
	}
	return nil
}

func (p *OutboxProcessor) process(ctx context.Context, event *model.OutboxEvent) {
	if err := p.broker.Publish(ctx, event.EventType, event.Payload); err != nil {
		p.handleFailure(ctx, event, err)
		return
	}

	if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil, nil); err != nil {
		p.logger.Error(err, "failed to mark outbox event processed",
			"event_id", event.ID.String())
		return
	}

	if p.metrics != nil {
		p.metrics.OutboxEventsProcessed.Inc()
	}
}

func (p *OutboxProcessor) handleFailure(ctx context.Context, event *model.OutboxEvent, cause error) {
	message := cause.Error()

	if event.RetryCount+1 >= p.cfg.RetryAttempts {
		p.logger.Error(cause, "outbox event exhausted retries",
			"event_id", event.ID.String(),
			"event_type", event.EventType)
		if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusFailed, &message, nil); err != nil {
			p.logger.Error(err, "failed to mark outbox event failed",
				"event_id", event.ID.String())
		}
		if p.metrics != nil {
			p.metrics.OutboxEventsFailed.Inc()
		}
		return
	}

	retryAt := time.Now().Add(p.cfg.RetryDelay)
	if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusRetry, &message, &retryAt); err != nil {
		p.logger.Error(err, "failed to schedule outbox retry",
			"event_id", event.ID.String())
		return
	}

	if p.metrics != nil {
		p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
	}
}
