package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/donation_cart/internal/domain"
	"github.com/fjod/donation_cart/internal/service"
	"github.com/go-chi/chi/v5"
)

// Catalog is the read-only appeal source the handlers need.
type Catalog interface {
	GetAppeal(ctx context.Context, id string) (*domain.Appeal, error)
	ListAppeals(ctx context.Context, filter service.AppealFilter) ([]*domain.Appeal, error)
	Categories(ctx context.Context) ([]string, error)
}

type AppealHandler struct {
	catalog Catalog
	now     func() time.Time
}

func NewAppealHandler(catalog Catalog) *AppealHandler {
	return &AppealHandler{catalog: catalog, now: time.Now}
}

type AppealResponse struct {
	*domain.Appeal
	Progress float64 `json:"progress"`
	DaysLeft *int    `json:"days_left,omitempty"`
}

func (h *AppealHandler) toResponse(a *domain.Appeal) AppealResponse {
	return AppealResponse{
		Appeal:   a,
		Progress: a.Progress(),
		DaysLeft: a.DaysLeft(h.now()),
	}
}

func (h *AppealHandler) ListAppeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.AppealFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
	}

	if v := q.Get("urgency"); v != "" && v != "all" {
		u := domain.Urgency(v)
		if !u.Valid() {
			respondError(w, r, http.StatusBadRequest, "invalid_urgency", "urgency must be one of low, medium, high, critical")
			return
		}
		filter.Urgency = u
	}
	if filter.Category == "all" {
		filter.Category = ""
	}
	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_featured", "featured must be true or false")
			return
		}
		filter.Featured = &featured
	}

	appeals, err := h.catalog.ListAppeals(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	out := make([]AppealResponse, len(appeals))
	for i, a := range appeals {
		out[i] = h.toResponse(a)
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (h *AppealHandler) GetAppeal(w http.ResponseWriter, r *http.Request) {
	appeal, err := h.catalog.GetAppeal(r.Context(), chi.URLParam(r, "appeal_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.toResponse(appeal))
}

func (h *AppealHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	respondJSON(w, r, http.StatusOK, categories)
}
