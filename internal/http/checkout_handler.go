package http

import (
	"context"
	"net/http"

	"github.com/fjod/donation_cart/internal/cart"
	"github.com/fjod/donation_cart/internal/domain"
	"github.com/fjod/donation_cart/internal/repository"
	"github.com/fjod/donation_cart/internal/service"
	"github.com/go-chi/chi/v5"
)

type Checkout interface {
	Checkout(ctx context.Context, session service.CartSession, req *domain.CheckoutRequest) (*domain.Donation, error)
	GetDonation(ctx context.Context, id string) (*domain.Donation, error)
}

type CheckoutHandler struct {
	checkout Checkout
}

func NewCheckoutHandler(checkout Checkout) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	store := cart.MustFromContext(r.Context())

	var req domain.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	donation, err := h.checkout.Checkout(r.Context(), store, &req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, donation)
}

// GetDonation returns a receipt to the session that created it.
func (h *CheckoutHandler) GetDonation(w http.ResponseWriter, r *http.Request) {
	store := cart.MustFromContext(r.Context())

	donation, err := h.checkout.GetDonation(r.Context(), chi.URLParam(r, "donation_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if donation.SessionID != store.ID() {
		handleServiceError(w, r, repository.ErrDonationNotFound)
		return
	}

	respondJSON(w, r, http.StatusOK, donation)
}
