package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher は注文イベントを1トピックに送る。キーは注文ID（同じ注文は同じパーティション）。
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev repo.OrderEvent) error {
	msg, err := newMessage(ev, time.Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s failed: %w", ev.Type, err)
	}
	return nil
}

// IDと発生時刻が空なら埋める
func newMessage(ev repo.OrderEvent, now time.Time) (kafka.Message, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = now.UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	return kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher はブローカー未設定のとき
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, ev repo.OrderEvent) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
