package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

// TicketsIssuedEvent is published once a booking's tickets have been created,
// so confirmation-email and notification consumers can react.
type TicketsIssuedEvent struct {
	BookingID string    `json:"booking_id"`
	Codes     []string  `json:"codes"`
	IssuedAt  time.Time `json:"issued_at"`
}

// PublishTicketsIssued streams the issuance event to Kafka.
func (p *Producer) PublishTicketsIssued(ctx context.Context, event TicketsIssuedEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(event.BookingID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
