package http

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/donation_cart/internal/domain"
	"github.com/fjod/donation_cart/internal/repository"
	"github.com/fjod/donation_cart/internal/service"
)

type catalogMock struct {
	appeals []*domain.Appeal
	err     error

	lastFilter service.AppealFilter
}

func (m *catalogMock) GetAppeal(_ context.Context, id string) (*domain.Appeal, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.appeals {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrAppealNotFound
}

func (m *catalogMock) ListAppeals(_ context.Context, filter service.AppealFilter) ([]*domain.Appeal, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.appeals, nil
}

func (m *catalogMock) Categories(context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	seen := map[string]bool{}
	for _, a := range m.appeals {
		if !seen[a.Category] {
			seen[a.Category] = true
			out = append(out, a.Category)
		}
	}
	return out, nil
}

type checkoutMock struct {
	m         sync.Mutex
	donations map[string]*domain.Donation
	err       error
}

func newCheckoutMock() *checkoutMock {
	return &checkoutMock{donations: map[string]*domain.Donation{}}
}

func (c *checkoutMock) Checkout(_ context.Context, session service.CartSession, req *domain.CheckoutRequest) (*domain.Donation, error) {
	if c.err != nil {
		return nil, c.err
	}
	state := session.State()
	if state.IsEmpty() {
		return nil, service.ErrEmptyCart
	}

	d := &domain.Donation{
		ID:            "don-1",
		SessionID:     session.ID(),
		Items:         domain.NewDonationItems(state.Items),
		Total:         state.Total.StringFixed(2),
		Currency:      "USD",
		Donor:         req.Donor,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.DonationStatusCompleted,
		CompletedAt:   time.Now(),
	}
	session.Settle(state.Items)

	c.m.Lock()
	c.donations[d.ID] = d
	c.m.Unlock()
	return d, nil
}

func (c *checkoutMock) GetDonation(_ context.Context, id string) (*domain.Donation, error) {
	c.m.Lock()
	defer c.m.Unlock()
	d, ok := c.donations[id]
	if !ok {
		return nil, repository.ErrDonationNotFound
	}
	return d, nil
}

func testAppeals() []*domain.Appeal {
	end := time.Now().Add(72 * time.Hour)
	return []*domain.Appeal{
		{
			ID:       "1",
			Title:    "Emergency Food Relief",
			Category: "Emergency Relief",
			Goal:     50000,
			Raised:   25000,
			Urgency:  domain.UrgencyCritical,
			Featured: true,
			EndAt:    &end,
		},
		{
			ID:       "2",
			Title:    "Clean Water for Schools",
			Category: "Education",
			Goal:     20000,
			Raised:   5000,
			Urgency:  domain.UrgencyHigh,
		},
	}
}
