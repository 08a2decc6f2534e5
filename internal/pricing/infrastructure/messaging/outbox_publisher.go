package messaging

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/contextx"
)

// Outbox message states.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// OutboxMessage is a domain event staged for delivery to Kafka. It is
// written in the same transaction as the state change that produced it; the
// relay ships it afterwards.
type OutboxMessage struct {
	ID        string    `gorm:"type:uuid;primary_key"`
	EventID   string    `gorm:"type:uuid;index"`
	EventType string    `gorm:"type:varchar(100);index"`
	Key       string    `gorm:"type:varchar(64)"`
	Payload   string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName sets the outbox table name.
func (OutboxMessage) TableName() string {
	return "pricing_outbox_messages"
}

// OutboxPublisher implements domain.EventPublisher with the outbox pattern.
// When the context carries a transaction the event row joins it, so event
// and state commit or roll back together.
type OutboxPublisher struct {
	db *gorm.DB
}

// NewOutboxPublisher creates an OutboxPublisher on db.
func NewOutboxPublisher(db *gorm.DB) *OutboxPublisher {
	return &OutboxPublisher{db: db}
}

// PublishCalculationCompleted stages a completed calculation event, keyed by
// calculation ID.
func (p *OutboxPublisher) PublishCalculationCompleted(ctx context.Context, event domain.CalculationCompletedEvent) error {
	key := strconv.FormatUint(uint64(event.CalculationID), 10)
	return p.publishEvent(ctx, domain.CalculationCompletedEventType, key, event)
}

// PublishBatchCalculationCompleted stages a completed batch event, keyed by
// batch ID.
func (p *OutboxPublisher) PublishBatchCalculationCompleted(ctx context.Context, event domain.BatchCalculationCompletedEvent) error {
	return p.publishEvent(ctx, domain.BatchCalculationCompletedEventType, event.BatchID, event)
}

// PublishCalculationsDeleted stages a deletion event. The fixed key keeps
// deletions on one partition, in order.
func (p *OutboxPublisher) PublishCalculationsDeleted(ctx context.Context, event domain.CalculationsDeletedEvent) error {
	return p.publishEvent(ctx, domain.CalculationsDeletedEventType, domain.CalculationsDeletedEventType, event)
}

func (p *OutboxPublisher) publishEvent(ctx context.Context, eventType, key string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	message := OutboxMessage{
		ID:        uuid.New().String(),
		EventID:   uuid.New().String(),
		EventType: eventType,
		Key:       key,
		Payload:   string(payload),
		Status:    StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	return p.getDB(ctx).WithContext(ctx).Create(&message).Error
}

func (p *OutboxPublisher) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return p.db
}
