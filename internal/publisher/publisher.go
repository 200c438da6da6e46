package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/donation_cart/internal/domain"
	"github.com/segmentio/kafka-go"
)

const EventTypeDonationCompleted = "donation.completed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DonationCompletedEvent is the payload consumers of the topic read.
type DonationCompletedEvent struct {
	DonationID    string                `json:"donation_id"`
	Items         []domain.DonationItem `json:"items"`
	TotalAmount   string                `json:"total_amount"`
	Currency      string                `json:"currency"`
	DonorEmail    string                `json:"donor_email"`
	Anonymous     bool                  `json:"anonymous"`
	PaymentMethod domain.PaymentMethod  `json:"payment_method"`
	CompletedAt   time.Time             `json:"completed_at"`
}

type KafkaPublisher struct {
	timeout time.Duration
	writer  messageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
	return &KafkaPublisher{timeout: 5 * time.Second, writer: w}
}

func (p *KafkaPublisher) PublishDonationCompleted(ctx context.Context, d *domain.Donation) error {
	event := DonationCompletedEvent{
		DonationID:    d.ID,
		Items:         d.Items,
		TotalAmount:   d.Total,
		Currency:      d.Currency,
		DonorEmail:    d.Donor.Email,
		Anonymous:     d.Donor.Anonymous,
		PaymentMethod: d.PaymentMethod,
		CompletedAt:   d.CompletedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal donation event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(d.ID), // donation id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeDonationCompleted)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write donation event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
