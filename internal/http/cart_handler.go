package http

import (
	"net/http"
	"strings"

	"github.com/fjod/donation_cart/internal/cart"
	"github.com/fjod/donation_cart/internal/domain"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	catalog Catalog
}

func NewCartHandler(catalog Catalog) *CartHandler {
	return &CartHandler{catalog: catalog}
}

type AddItemRequestDTO struct {
	AppealID  string           `json:"appeal_id"`
	Amount    decimal.Decimal  `json:"amount"`
	Frequency domain.Frequency `json:"frequency"`
}

type UpdateQuantityRequestDTO struct {
	AppealID  string           `json:"appeal_id"`
	Amount    decimal.Decimal  `json:"amount"`
	Frequency domain.Frequency `json:"frequency"`
	Quantity  *int             `json:"quantity"`
}

type LineItemDTO struct {
	AppealID  string           `json:"appeal_id"`
	Amount    string           `json:"amount"`
	Frequency domain.Frequency `json:"frequency"`
	Quantity  int              `json:"quantity"`
	Subtotal  string           `json:"subtotal"`
	Appeal    domain.Appeal    `json:"appeal"`
}

type CartResponse struct {
	SessionID     string        `json:"session_id"`
	Items         []LineItemDTO `json:"items"`
	Total         string        `json:"total"`
	ItemCount     int           `json:"item_count"`
	RecentlyAdded bool          `json:"recently_added"`
}

type CountResponse struct {
	ItemCount int `json:"item_count"`
}

func convertCart(store *cart.Store, state domain.CartState) CartResponse {
	items := make([]LineItemDTO, len(state.Items))
	for i, item := range state.Items {
		items[i] = LineItemDTO{
			AppealID:  item.AppealID,
			Amount:    item.Amount.String(),
			Frequency: item.Frequency,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal().StringFixed(2),
			Appeal:    item.Appeal,
		}
	}
	return CartResponse{
		SessionID:     store.ID(),
		Items:         items,
		Total:         state.Total.StringFixed(2),
		ItemCount:     state.ItemCount(),
		RecentlyAdded: store.RecentlyAdded(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store := cart.MustFromContext(r.Context())
	respondJSON(w, r, http.StatusOK, convertCart(store, store.State()))
}

func (h *CartHandler) ItemCount(w http.ResponseWriter, r *http.Request) {
	store := cart.MustFromContext(r.Context())
	respondJSON(w, r, http.StatusOK, CountResponse{ItemCount: store.ItemCount()})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	store := cart.MustFromContext(r.Context())

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.AppealID) == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_appeal_id", "appeal_id is required")
		return
	}

	appeal, err := h.catalog.GetAppeal(r.Context(), req.AppealID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	state, err := store.AddItem(*appeal, req.Amount, req.Frequency)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, convertCart(store, state))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	store := cart.MustFromContext(r.Context())

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity is required")
		return
	}

	state := store.UpdateQuantity(req.AppealID, req.Amount, req.Frequency, *req.Quantity)
	respondJSON(w, r, http.StatusOK, convertCart(store, state))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store := cart.MustFromContext(r.Context())

	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		respondErrorDetails(w, r, http.StatusBadRequest, "invalid_amount", cart.ErrInvalidAmount.Error(), "amount must be a decimal number")
		return
	}

	state := store.RemoveItem(q.Get("appeal_id"), amount, domain.Frequency(q.Get("frequency")))
	respondJSON(w, r, http.StatusOK, convertCart(store, state))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store := cart.MustFromContext(r.Context())
	respondJSON(w, r, http.StatusOK, convertCart(store, store.ClearCart()))
}
