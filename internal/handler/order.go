package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
)

type CreateOrderItemRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Name      string  `json:"name" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	Notes     string  `json:"notes"`
}

type CreateOrderRequest struct {
	BusinessID       string                   `json:"business_id" validate:"required,uuid"`
	OrderNumber      string                   `json:"order_number" validate:"required"`
	PaymentMethod    string                   `json:"payment_method" validate:"required,oneof=cash card clip"`
	PaymentReference string                   `json:"payment_reference"`
	CashRegisterID   string                   `json:"cash_register_id" validate:"omitempty,uuid"`
	Items            []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Subtotal         float64                  `json:"subtotal" validate:"gte=0"`
	Tax              float64                  `json:"tax" validate:"gte=0"`
	Tip              float64                  `json:"tip" validate:"gte=0"`
	Total            float64                  `json:"total" validate:"gte=0"`
}

type UpdateStatusRequest struct {
	Status             string `json:"status" validate:"required"`
	Notes              string `json:"notes"`
	CancellationReason string `json:"cancellation_reason"`
}

type StatusUpdateResponse struct {
	Success bool         `json:"success"`
	Order   *order.Order `json:"order,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// OrderHandler handles the staff-facing order endpoints.
type OrderHandler struct {
	svc      order.Service
	validate *validator.Validate
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.CreateOrder)
	router.Get("/orders", h.ListOrders)
	router.Get("/orders/{id}", h.GetOrderByID)
	router.Get("/orders/{id}/history", h.GetOrderHistory)
	router.Patch("/orders/{id}/status", h.UpdateOrderStatus)
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode create order request body")
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	ord, err := buildOrder(requestPayload)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.svc.CreateOrder(r.Context(), ord)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create order via service")
		respondWithError(w, mapErrorToStatusCode(err), "failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	ord, err := h.svc.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get order by id via service")
		respondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := order.Status(r.URL.Query().Get("status"))
	if status == "" {
		respondWithError(w, http.StatusBadRequest, "status query parameter is required")
		return
	}

	orders, err := h.svc.ListOrdersByStatus(r.Context(), status)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	records, err := h.svc.ListHistory(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get order history via service")
		respondWithError(w, http.StatusInternalServerError, "failed to get order history")
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}

// UpdateOrderStatus applies a staff-initiated transition. The actor comes
// from the X-Staff-ID header; authentication happens upstream.
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "status is required")
		return
	}

	updated, err := h.svc.UpdateOrderStatus(r.Context(), orderID, order.Status(requestPayload.Status), order.UpdateOptions{
		Actor:              r.Header.Get("X-Staff-ID"),
		Notes:              requestPayload.Notes,
		CancellationReason: requestPayload.CancellationReason,
	})
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidStatusTransition):
			respondWithJSON(w, http.StatusConflict, StatusUpdateResponse{Success: false, Error: "Invalid status transition"})
		case errors.Is(err, order.ErrOrderNotFound):
			respondWithJSON(w, http.StatusNotFound, StatusUpdateResponse{Success: false, Error: "order not found"})
		default:
			log.Error().Err(err).Msg("Failed to update order status via service")
			respondWithJSON(w, http.StatusInternalServerError, StatusUpdateResponse{Success: false, Error: "failed to update order status"})
		}
		return
	}

	respondWithJSON(w, http.StatusOK, StatusUpdateResponse{Success: true, Order: updated})
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	orderID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return orderID, true
}

func buildOrder(req CreateOrderRequest) (*order.Order, error) {
	businessID, err := uuid.FromString(req.BusinessID)
	if err != nil {
		return nil, errors.New("invalid business_id")
	}

	ord := &order.Order{
		BusinessID:       businessID,
		OrderNumber:      req.OrderNumber,
		PaymentMethod:    order.PaymentMethod(req.PaymentMethod),
		PaymentReference: req.PaymentReference,
		Subtotal:         req.Subtotal,
		Tax:              req.Tax,
		Tip:              req.Tip,
		Total:            req.Total,
	}

	if req.CashRegisterID != "" {
		registerID, err := uuid.FromString(req.CashRegisterID)
		if err != nil {
			return nil, errors.New("invalid cash_register_id")
		}
		ord.CashRegisterID = &registerID
	}

	ord.Items = make([]order.Item, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.FromString(item.ProductID)
		if err != nil {
			return nil, errors.New("invalid product_id in order item")
		}
		ord.Items = append(ord.Items, order.Item{
			ProductID: productID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Notes:     item.Notes,
		})
	}
	return ord, nil
}
