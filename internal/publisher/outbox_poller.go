package publisher

import (
	"context"
	"time"

	"github.com/fjod/donation_cart/internal/domain"
	"go.uber.org/zap"
)

// DonationOutbox is the receipt store seen as an outbox.
type DonationOutbox interface {
	ListUnpublished(ctx context.Context, completedBefore time.Time, limit int64) ([]*domain.Donation, error)
	MarkPublished(ctx context.Context, id string) error
}

type donationPublisher interface {
	PublishDonationCompleted(ctx context.Context, d *domain.Donation) error
}

// OutboxPoller republishes donation-completed events the checkout request
// could not deliver. Receipts younger than grace are left to the request.
type OutboxPoller struct {
	repo      DonationOutbox
	publisher donationPublisher
	log       *zap.Logger

	tick  time.Duration
	grace time.Duration
	batch int64
	now   func() time.Time
}

func NewOutboxPoller(repo DonationOutbox, publisher donationPublisher, tick time.Duration, log *zap.Logger) *OutboxPoller {
	if tick <= 0 {
		tick = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OutboxPoller{
		repo:      repo,
		publisher: publisher,
		log:       log.Named("outbox"),
		tick:      tick,
		grace:     30 * time.Second,
		batch:     100,
		now:       time.Now,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublished(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublished(ctx context.Context) {
	donations, err := p.repo.ListUnpublished(ctx, p.now().Add(-p.grace), p.batch)
	if err != nil {
		p.log.Error("failed to fetch unpublished donations", zap.Error(err))
		return
	}

	for _, d := range donations {
		if err := p.publisher.PublishDonationCompleted(ctx, d); err != nil {
			p.log.Warn("failed to publish donation", zap.String("donation_id", d.ID), zap.Error(err))
			continue
		}
		if err := p.repo.MarkPublished(ctx, d.ID); err != nil {
			p.log.Warn("failed to mark donation published", zap.String("donation_id", d.ID), zap.Error(err))
			continue
		}
		p.log.Info("donation event republished", zap.String("donation_id", d.ID))
	}
}
