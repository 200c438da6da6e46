package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fjod/donation_cart/internal/domain"
	"github.com/fjod/donation_cart/internal/publisher"
	"github.com/fjod/donation_cart/internal/repository"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DonationApplier credits completed donations to the appeal catalog.
type DonationApplier interface {
	ApplyDonation(ctx context.Context, donationID string, items []domain.DonationItem) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer keeps appeal raised totals in step with completed donations.
type Consumer struct {
	applier DonationApplier
	reader  messageReader
	log     *zap.Logger
}

func NewConsumer(applier DonationApplier, log *zap.Logger, topic, groupID string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newConsumer(applier, reader, log)
}

func newConsumer(applier DonationApplier, reader messageReader, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{applier: applier, reader: reader, log: log.Named("donation-consumer")}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Warn("error closing kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.log.Error("error reading message", zap.Error(err))
		return
	}

	if t := eventType(m); t != "" && t != publisher.EventTypeDonationCompleted {
		c.log.Debug("skipping event", zap.String("event_type", t))
		return
	}

	var event publisher.DonationCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Error("error parsing message", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}
	if event.DonationID == "" {
		c.log.Error("event without donation_id", zap.Int64("offset", m.Offset))
		return
	}

	log := c.log.With(zap.String("donation_id", event.DonationID))
	if err := c.applier.ApplyDonation(ctx, event.DonationID, event.Items); err != nil {
		if errors.Is(err, repository.ErrDonationAlreadyApplied) {
			log.Info("donation already applied, skipping")
			return
		}
		log.Error("failed to apply donation", zap.Error(err))
		return
	}

	log.Info("donation applied", zap.Int("items", len(event.Items)), zap.String("total", event.TotalAmount))
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
