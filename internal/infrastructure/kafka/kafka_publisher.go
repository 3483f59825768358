package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lumapay/marketplace-order-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewDefaultKafkaPublisher(brokers []string, topic string) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
		topic: topic,
	}
}

// PublishOrderEvent emits a lifecycle event keyed by order id, so events of
// one order stay ordered within a partition.
func (k *DefaultKafkaPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
		Time:  time.Now(),
		Topic: k.topic,
	})
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
