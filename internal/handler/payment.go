package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/payment"
)

// PaymentHandler receives provider webhooks and serves the poller entry.
type PaymentHandler struct {
	svc payment.Service
}

func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) RegisterRoutes(router chi.Router) {
	router.Post("/webhooks/payment", h.HandleWebhook)
	router.Post("/orders/{id}/check-payment", h.CheckPayment)
}

// HandleWebhook always acknowledges with 200 except on internal storage
// errors. Replays, unknown events and already-settled sales get a success
// body so the provider stops retrying.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var event payment.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Warn().Err(err).Msg("Failed to decode payment webhook body")
		respondWithError(w, http.StatusBadRequest, "invalid webhook body")
		return
	}

	result, err := h.svc.HandleWebhook(r.Context(), event)
	if err != nil {
		log.Error().Err(err).Str("event", event.Event).Msg("Failed to process payment webhook")
		respondWithError(w, http.StatusInternalServerError, "failed to process webhook")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"processed": result.Processed,
		"message":   result.Message,
	})
}

func (h *PaymentHandler) CheckPayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.CheckPayment(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("Failed to check payment via service")
		respondWithError(w, http.StatusInternalServerError, "failed to check payment")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
