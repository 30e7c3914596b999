package repository

import (
	"context"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/domain/repository"
	pkgkafka "SpotCast/pkg/kafka"
)

// KafkaEventPublisher emits training lifecycle events to Kafka. Publish
// failures are reported to the caller for logging but never fail the
// originating operation.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates the publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// TrainingCompleted publishes a training.completed event keyed by the
// (commodity, region) pair so per-pair ordering is preserved.
func (p *KafkaEventPublisher) TrainingCompleted(ctx context.Context, run *models.TrainingRun) error {
	key := []byte(run.Commodity + ":" + run.Region)
	return p.producer.Publish(ctx, p.topic, key, map[string]interface{}{
		"event":         "training.completed",
		"commodity":     run.Commodity,
		"region":        run.Region,
		"model_name":    run.ModelName,
		"model_version": run.ModelVersion,
		"rmse":          run.RMSE,
		"mape":          run.MAPE,
		"trained_at":    run.TrainedAt,
	})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopEventPublisher is used when Kafka is disabled by configuration.
type NopEventPublisher struct{}

func (NopEventPublisher) TrainingCompleted(ctx context.Context, run *models.TrainingRun) error {
	return nil
}

func (NopEventPublisher) Close() error { return nil }
