package messaging

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/mq"
	"github.com/wyfcoding/optionpricing/pkg/utils"
)

const (
	// CalculationEventsTopic carries all pricing domain events.
	CalculationEventsTopic = "pricing.calculations"
	// CalculationEventsDLQTopic receives events that exhausted their
	// publish retries.
	CalculationEventsDLQTopic = "pricing.calculations.dlq"
)

// OutboxRelay polls the outbox table and ships pending messages to Kafka.
// Messages that exhaust their retries go to the dead letter topic and are
// marked failed; sent messages are purged after the retention window.
type OutboxRelay struct {
	db        *gorm.DB
	producer  *mq.KafkaProducer
	dlq       *mq.DeadLetterQueue
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int
	retention time.Duration
}

// NewOutboxRelay creates a relay with the polling settings from cfg.
func NewOutboxRelay(db *gorm.DB, producer *mq.KafkaProducer, m *metrics.Metrics, cfg config.OutboxConfig) *OutboxRelay {
	return &OutboxRelay{
		db:        db,
		producer:  producer,
		dlq:       mq.NewDeadLetterQueue(producer, CalculationEventsDLQTopic),
		metrics:   m,
		interval:  time.Duration(cfg.PollInterval) * time.Second,
		batchSize: cfg.BatchSize,
		retention: time.Duration(cfg.RetentionHours) * time.Hour,
	}
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info(ctx, "Outbox relay started",
		"interval", r.interval,
		"batch_size", r.batchSize,
		"topic", CalculationEventsTopic,
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.processPending(ctx); err != nil {
				logger.Error(ctx, "Outbox relay pass failed", "error", err)
			}
			if err := r.cleanupSent(ctx); err != nil {
				logger.Error(ctx, "Outbox cleanup failed", "error", err)
			}
		}
	}
}

// envelope is the wire format published to the events topic. The payload is
// forwarded exactly as the publisher staged it.
type envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

func (r *OutboxRelay) processPending(ctx context.Context) error {
	var pending int64
	if err := r.db.WithContext(ctx).Model(&OutboxMessage{}).
		Where("status = ?", StatusPending).
		Count(&pending).Error; err == nil {
		r.metrics.OutboxPending.Set(float64(pending))
	}

	var messages []OutboxMessage
	if err := r.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at ASC").
		Limit(r.batchSize).
		Find(&messages).Error; err != nil {
		return err
	}

	for _, message := range messages {
		env := envelope{
			EventID:   message.EventID,
			EventType: message.EventType,
			Payload:   json.RawMessage(message.Payload),
		}

		err := utils.RetryWithBackoff(3, 100*time.Millisecond, time.Second, func() error {
			return r.producer.SendMessage(ctx, CalculationEventsTopic, message.Key, env)
		})
		if err != nil {
			logger.Error(ctx, "Outbox message exhausted publish retries",
				"message_id", message.ID,
				"event_type", message.EventType,
				"error", err,
			)
			if dlqErr := r.dlq.Send(ctx, CalculationEventsTopic, message.Key, []byte(message.Payload), "publish retries exhausted", err); dlqErr != nil {
				// Dead letter delivery failed too. Keep the message pending
				// and let the next pass retry everything.
				logger.Error(ctx, "Dead letter delivery failed", "message_id", message.ID, "error", dlqErr)
				continue
			}
			if err := r.markStatus(ctx, message.ID, StatusFailed); err != nil {
				return err
			}
			r.metrics.OutboxPublishFailuresTotal.Inc()
			continue
		}

		if err := r.markStatus(ctx, message.ID, StatusSent); err != nil {
			return err
		}
		r.metrics.OutboxPublishedTotal.Inc()
	}

	return nil
}

func (r *OutboxRelay) markStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *OutboxRelay) cleanupSent(ctx context.Context) error {
	cutoff := time.Now().Add(-r.retention)
	return r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", StatusSent, cutoff).
		Delete(&OutboxMessage{}).Error
}
