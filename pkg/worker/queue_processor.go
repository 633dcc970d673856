package worker

import (
	"context"
	"time"

	"github.com/mcastellanos/procadena/internal/service/notification"
	"github.com/mcastellanos/procadena/pkg/logger"
)

// Drainer is the queue-draining side of the notification service.
type Drainer interface {
	DrainQueue(ctx context.Context, limit int) (notification.DrainStats, error)
}

type QueueProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// QueueProcessor drains the notification delivery queue on a fixed
// interval until its context is cancelled.
type QueueProcessor struct {
	drainer Drainer
	config  QueueProcessorConfig
	logger  *logger.Logger
}

func NewQueueProcessor(drainer Drainer, config QueueProcessorConfig, logger *logger.Logger) *QueueProcessor {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	return &QueueProcessor{
		drainer: drainer,
		config:  config,
		logger:  logger,
	}
}

func (p *QueueProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting queue processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down queue processor")
			return
		case <-ticker.C:
			stats, err := p.drainer.DrainQueue(ctx, p.config.BatchSize)
			if err != nil {
				p.logger.Error(err, "Failed to drain queue")
				continue
			}
			if stats.Processed > 0 {
				p.logger.Info("Queue drained",
					"processed", stats.Processed,
					"succeeded", stats.Succeeded,
					"failed", stats.Failed)
			}
		}
	}
}
