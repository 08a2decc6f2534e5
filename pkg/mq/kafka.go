// Package mq provides the Kafka producer used to publish calculation events,
// plus a dead letter queue for messages that exhaust their retries.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wyfcoding/optionpricing/pkg/logger"
)

// KafkaConfig holds producer settings.
type KafkaConfig struct {
	Brokers      []string
	MaxRetries   int
	RetryBackoff int
}

// KafkaProducer publishes JSON messages to Kafka.
type KafkaProducer struct {
	writer *kafka.Writer
	config KafkaConfig
}

// NewProducer creates a producer that waits for all replicas to acknowledge
// each write.
func NewProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		WriteBackoffMin:        time.Duration(cfg.RetryBackoff) * time.Millisecond,
		WriteBackoffMax:        time.Duration(cfg.RetryBackoff*10) * time.Millisecond,
	}

	logger.Info(context.Background(), "Kafka producer created successfully", "brokers", cfg.Brokers)
	return &KafkaProducer{
		writer: writer,
		config: cfg,
	}, nil
}

// SendMessage marshals value to JSON and publishes it to topic under key.
func (kp *KafkaProducer) SendMessage(ctx context.Context, topic string, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}

	err = kp.writer.WriteMessages(ctx, msg)
	if err != nil {
		logger.Error(ctx, "Failed to send Kafka message",
			"topic", topic,
			"key", key,
			"error", err,
		)
		return err
	}

	logger.Debug(ctx, "Kafka message sent",
		"topic", topic,
		"key", key,
	)
	return nil
}

// Close flushes and closes the writer.
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

// DeadLetterQueue receives messages that could not be delivered to their
// original topic.
type DeadLetterQueue struct {
	producer *KafkaProducer
	topic    string
}

// NewDeadLetterQueue creates a dead letter queue on topic.
func NewDeadLetterQueue(producer *KafkaProducer, topic string) *DeadLetterQueue {
	return &DeadLetterQueue{
		producer: producer,
		topic:    topic,
	}
}

// Send wraps the failed message with its failure context and publishes it to
// the dead letter topic.
func (dlq *DeadLetterQueue) Send(ctx context.Context, originalTopic, key string, payload []byte, reason string, cause error) error {
	deadLetterMsg := map[string]interface{}{
		"original_topic":    originalTopic,
		"original_key":      key,
		"original_value":    string(payload),
		"failure_reason":    reason,
		"failure_timestamp": time.Now(),
	}
	if cause != nil {
		deadLetterMsg["failure_error"] = cause.Error()
	}

	return dlq.producer.SendMessage(ctx, dlq.topic, key, deadLetterMsg)
}
