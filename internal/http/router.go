package http

import (
	"net/http"
	"time"

	"github.com/fjod/donation_cart/internal/cart"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger         *zap.Logger
	Sessions       *cart.Registry
	Catalog        Catalog
	Checkout       Checkout
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	appealHandler := NewAppealHandler(cfg.Catalog)
	cartHandler := NewCartHandler(cfg.Catalog)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/appeals", func(r chi.Router) {
			r.Get("/", appealHandler.ListAppeals)
			r.Get("/categories", appealHandler.Categories)
			r.Get("/{appeal_id}", appealHandler.GetAppeal)
		})

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(cfg.Sessions))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Get("/count", cartHandler.ItemCount)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items", cartHandler.UpdateQuantity)
				r.Delete("/items", cartHandler.RemoveItem)
			})
			r.Post("/checkout", checkoutHandler.Checkout)
			r.Get("/donations/{donation_id}", checkoutHandler.GetDonation)
		})
	})

	return otelhttp.NewHandler(r, "donation-api")
}
