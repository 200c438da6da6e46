package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fjod/donation_cart/internal/cart"
	"github.com/fjod/donation_cart/internal/repository"
	"github.com/fjod/donation_cart/internal/service"
	"github.com/fjod/donation_cart/pkg/logger"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response", zap.Error(err))
	}
}

// maxBodyBytes bounds request bodies. Cart and checkout payloads are a few
// hundred bytes.
const maxBodyBytes = 64 << 10

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondErrorDetails(w http.ResponseWriter, r *http.Request, status int, code, message, details string) {
	respondJSON(w, r, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// decodeJSON reads a bounded JSON body into v and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		respondErrorDetails(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body", err.Error())
		return false
	}
	return true
}

// respondValidation splits a wrapped validation error into the sentinel
// message and the specific reason.
func respondValidation(w http.ResponseWriter, r *http.Request, code string, sentinel, err error) {
	details := strings.TrimPrefix(err.Error(), sentinel.Error())
	details = strings.TrimPrefix(details, ": ")
	respondErrorDetails(w, r, http.StatusBadRequest, code, sentinel.Error(), details)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrAppealNotFound):
		respondError(w, r, http.StatusNotFound, "appeal_not_found", err.Error())
	case errors.Is(err, repository.ErrDonationNotFound):
		respondError(w, r, http.StatusNotFound, "donation_not_found", err.Error())
	case errors.Is(err, cart.ErrInvalidAmount):
		respondValidation(w, r, "invalid_amount", cart.ErrInvalidAmount, err)
	case errors.Is(err, cart.ErrInvalidFrequency):
		respondValidation(w, r, "invalid_frequency", cart.ErrInvalidFrequency, err)
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, r, http.StatusUnprocessableEntity, "empty_cart", err.Error())
	case errors.Is(err, service.ErrInvalidCheckout):
		respondValidation(w, r, "invalid_checkout", service.ErrInvalidCheckout, err)
	case errors.Is(err, service.ErrCheckoutInProgress):
		respondError(w, r, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "request cancelled")
	default:
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
