package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/fjod/donation_cart/internal/domain"
	"github.com/fjod/donation_cart/internal/repository"
	"github.com/fjod/donation_cart/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartSession is the part of a cart store checkout needs.
type CartSession interface {
	ID() string
	State() domain.CartState
	Settle(paid []domain.LineItem) domain.CartState
}

type EventPublisher interface {
	PublishDonationCompleted(ctx context.Context, donation *domain.Donation) error
}

const recordTimeout = 15 * time.Second

type CheckoutService struct {
	donations    repository.DonationRepository
	publisher    EventPublisher
	paymentDelay time.Duration
	currency     string
	now          func() time.Time

	inFlight sync.Map // session id -> struct{}
}

func NewCheckoutService(
	donations repository.DonationRepository,
	publisher EventPublisher,
	paymentDelay time.Duration,
	currency string,
) *CheckoutService {
	if currency == "" {
		currency = "USD"
	}
	return &CheckoutService{
		donations:    donations,
		publisher:    publisher,
		paymentDelay: paymentDelay,
		currency:     currency,
		now:          time.Now,
	}
}

// Checkout charges the cart of session, records the donation and takes the
// paid items out of the cart. Payment is simulated by waiting paymentDelay.
// Events that fail to publish here are retried by the outbox poller.
func (s *CheckoutService) Checkout(ctx context.Context, session CartSession, req *domain.CheckoutRequest) (*domain.Donation, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	if _, busy := s.inFlight.LoadOrStore(session.ID(), struct{}{}); busy {
		return nil, ErrCheckoutInProgress
	}
	defer s.inFlight.Delete(session.ID())

	state := session.State()
	if state.IsEmpty() {
		return nil, ErrEmptyCart
	}

	log := logger.FromContext(ctx).With(zap.String("session_id", session.ID()))

	if err := s.processPayment(ctx); err != nil {
		log.Warn("payment processing aborted", zap.Error(err))
		return nil, fmt.Errorf("payment processing aborted: %w", err)
	}

	donation := &domain.Donation{
		ID:             uuid.NewString(),
		SessionID:      session.ID(),
		Items:          domain.NewDonationItems(state.Items),
		Total:          state.Total.StringFixed(2),
		Currency:       s.currency,
		Donor:          normalizeDonor(req.Donor),
		BillingAddress: req.BillingAddress,
		PaymentMethod:  req.PaymentMethod,
		Status:         domain.DonationStatusCompleted,
		CompletedAt:    s.now().UTC(),
	}
	if req.PaymentMethod == domain.PaymentMethodCard {
		donation.CardLast4 = last4(req.Card.Number)
	}

	// The donor is charged from here on; recording runs detached from the
	// request and bounded by recordTimeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.donations.SaveDonation(ctx, donation); err != nil {
		log.Error("failed to record donation", zap.Error(err))
		return nil, fmt.Errorf("record donation: %w", err)
	}

	if err := s.publisher.PublishDonationCompleted(ctx, donation); err != nil {
		log.Warn("donation event left for the outbox", zap.String("donation_id", donation.ID), zap.Error(err))
	} else if err := s.donations.MarkPublished(ctx, donation.ID); err != nil {
		log.Warn("failed to mark donation published", zap.String("donation_id", donation.ID), zap.Error(err))
	}

	session.Settle(state.Items)

	log.Info("donation completed",
		zap.String("donation_id", donation.ID),
		zap.String("total", donation.Total),
		zap.Int("items", len(donation.Items)),
	)
	return donation, nil
}

func (s *CheckoutService) GetDonation(ctx context.Context, id string) (*domain.Donation, error) {
	return s.donations.GetDonation(ctx, id)
}

func (s *CheckoutService) processPayment(ctx context.Context) error {
	if s.paymentDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.paymentDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validateCheckout(req *domain.CheckoutRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request body is required", ErrInvalidCheckout)
	}
	if !req.Donor.Anonymous && strings.TrimSpace(req.Donor.Name) == "" {
		return fmt.Errorf("%w: donor name is required", ErrInvalidCheckout)
	}
	if strings.TrimSpace(req.Donor.Email) == "" {
		return fmt.Errorf("%w: donor email is required", ErrInvalidCheckout)
	}
	if _, err := mail.ParseAddress(req.Donor.Email); err != nil {
		return fmt.Errorf("%w: donor email is invalid", ErrInvalidCheckout)
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment method must be one of card, paypal, bank", ErrInvalidCheckout)
	}
	if req.PaymentMethod == domain.PaymentMethodCard {
		if req.Card == nil {
			return fmt.Errorf("%w: card details are required", ErrInvalidCheckout)
		}
		number := cardSeparators.Replace(req.Card.Number)
		if len(number) < 12 || len(number) > 19 || digits(number) != number {
			return fmt.Errorf("%w: card number is invalid", ErrInvalidCheckout)
		}
		if strings.TrimSpace(req.Card.Expiry) == "" {
			return fmt.Errorf("%w: card expiry is required", ErrInvalidCheckout)
		}
		if n := len(req.Card.CVV); n < 3 || n > 4 || digits(req.Card.CVV) != req.Card.CVV {
			return fmt.Errorf("%w: card cvv is invalid", ErrInvalidCheckout)
		}
	}
	return nil
}

var cardSeparators = strings.NewReplacer(" ", "", "-", "")

func normalizeDonor(d domain.Donor) domain.Donor {
	d.Name = strings.TrimSpace(d.Name)
	if addr, err := mail.ParseAddress(d.Email); err == nil {
		d.Email = strings.ToLower(addr.Address)
	}
	return d
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func last4(number string) string {
	d := digits(number)
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}
