package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
)

type mockOrderService struct {
	createOrderFunc       func(ctx context.Context, ord *order.Order) (*order.Order, error)
	getOrderByIDFunc      func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	updateOrderStatusFunc func(ctx context.Context, orderID uuid.UUID, newStatus order.Status, opts order.UpdateOptions) (*order.Order, error)
	listHistoryFunc       func(ctx context.Context, orderID uuid.UUID) ([]order.StatusHistory, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, ord *order.Order) (*order.Order, error) {
	return m.createOrderFunc(ctx, ord)
}

func (m *mockOrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getOrderByIDFunc(ctx, id)
}

func (m *mockOrderService) ListOrdersByStatus(ctx context.Context, status order.Status) ([]order.Order, error) {
	return []order.Order{}, nil
}

func (m *mockOrderService) FindPendingPayment(ctx context.Context, ref string) (*order.Order, error) {
	return nil, order.ErrOrderNotFound
}

func (m *mockOrderService) ListHistory(ctx context.Context, orderID uuid.UUID) ([]order.StatusHistory, error) {
	return m.listHistoryFunc(ctx, orderID)
}

func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus order.Status, opts order.UpdateOptions) (*order.Order, error) {
	return m.updateOrderStatusFunc(ctx, orderID, newStatus, opts)
}

func (m *mockOrderService) TriggerReadyNotification(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return false, nil
}

func newMockOrderService() *mockOrderService {
	return &mockOrderService{
		createOrderFunc: func(ctx context.Context, ord *order.Order) (*order.Order, error) {
			return ord, nil
		},
		getOrderByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
		updateOrderStatusFunc: func(ctx context.Context, orderID uuid.UUID, newStatus order.Status, opts order.UpdateOptions) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
		listHistoryFunc: func(ctx context.Context, orderID uuid.UUID) ([]order.StatusHistory, error) {
			return []order.StatusHistory{}, nil
		},
	}
}

func requestWithID(method, target, id, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestOrderHandler_UpdateOrderStatus(t *testing.T) {
	orderID := "550e8400-e29b-41d4-a716-446655440000"

	tests := []struct {
		name              string
		id                string
		body              string
		updateOrderStatus func(ctx context.Context, orderID uuid.UUID, newStatus order.Status, opts order.UpdateOptions) (*order.Order, error)
		expectedStatus    int
		expectedBody      string
	}{
		{
			name: "success",
			id:   orderID,
			body: `{"status": "confirmed"}`,
			updateOrderStatus: func(ctx context.Context, id uuid.UUID, newStatus order.Status, opts order.UpdateOptions) (*order.Order, error) {
				return &order.Order{
					ID:          uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440000"),
					OrderNumber: "order-123",
					Status:      order.StatusConfirmed,
					Items:       []order.Item{},
				}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "invalid_transition",
			id:   orderID,
			body: `{"status": "ready"}`,
			updateOrderStatus: func(ctx context.Context, id uuid.UUID, newStatus order.Status, opts order.UpdateOptions) (*order.Order, error) {
				return nil, order.ErrInvalidStatusTransition
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"success":false,"error":"Invalid status transition"}`,
		},
		{
			name: "order_not_found",
			id:   orderID,
			body: `{"status": "confirmed"}`,
			updateOrderStatus: func(ctx context.Context, id uuid.UUID, newStatus order.Status, opts order.UpdateOptions) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"success":false,"error":"order not found"}`,
		},
		{
			name:           "invalid_id",
			id:             "not-a-uuid",
			body:           `{"status": "confirmed"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing_status",
			id:             orderID,
			body:           `{"notes": "hello"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"status is required","success":false}`,
		},
		{
			name:           "invalid_json",
			id:             orderID,
			body:           `{invalid json}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := newMockOrderService()
			if tt.updateOrderStatus != nil {
				mockSvc.updateOrderStatusFunc = tt.updateOrderStatus
			}

			h := NewOrderHandler(mockSvc)
			req := requestWithID(http.MethodPatch, "/orders/"+tt.id+"/status", tt.id, tt.body)
			w := httptest.NewRecorder()

			h.UpdateOrderStatus(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestOrderHandler_UpdateOrderStatus_PassesActorAndReason(t *testing.T) {
	var gotOpts order.UpdateOptions
	var gotStatus order.Status

	mockSvc := newMockOrderService()
	mockSvc.updateOrderStatusFunc = func(ctx context.Context, id uuid.UUID, newStatus order.Status, opts order.UpdateOptions) (*order.Order, error) {
		gotStatus = newStatus
		gotOpts = opts
		return &order.Order{ID: id, Status: newStatus}, nil
	}

	h := NewOrderHandler(mockSvc)
	req := requestWithID(http.MethodPatch, "/orders/550e8400-e29b-41d4-a716-446655440000/status",
		"550e8400-e29b-41d4-a716-446655440000",
		`{"status": "cancelled", "notes": "till closed", "cancellation_reason": "customer left"}`)
	req.Header.Set("X-Staff-ID", "staff-7")
	w := httptest.NewRecorder()

	h.UpdateOrderStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusCancelled, gotStatus)
	assert.Equal(t, "staff-7", gotOpts.Actor)
	assert.Equal(t, "till closed", gotOpts.Notes)
	assert.Equal(t, "customer left", gotOpts.CancellationReason)
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	validBody := `{
		"business_id": "123e4567-e89b-12d3-a456-426614174000",
		"order_number": "order-123",
		"payment_method": "cash",
		"items": [
			{"product_id": "111e8400-e29b-41d4-a716-446655440001", "name": "espresso", "quantity": 2, "unit_price": 95},
			{"product_id": "222e8400-e29b-41d4-a716-446655440002", "name": "croissant", "quantity": 1, "unit_price": 60}
		],
		"subtotal": 250,
		"total": 250
	}`

	tests := []struct {
		name           string
		body           string
		createOrder    func(ctx context.Context, ord *order.Order) (*order.Order, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: validBody,
			createOrder: func(ctx context.Context, ord *order.Order) (*order.Order, error) {
				ord.ID = uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440000")
				ord.Status = order.StatusPending
				return ord, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid_json",
			body:           `{invalid json}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing_items",
			body:           `{"business_id": "123e4567-e89b-12d3-a456-426614174000", "order_number": "order-123", "payment_method": "cash"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown_payment_method",
			body:           `{"business_id": "123e4567-e89b-12d3-a456-426614174000", "order_number": "order-123", "payment_method": "crypto", "items": [{"product_id": "111e8400-e29b-41d4-a716-446655440001", "name": "espresso", "quantity": 1, "unit_price": 95}]}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := newMockOrderService()
			if tt.createOrder != nil {
				mockSvc.createOrderFunc = tt.createOrder
			}

			h := NewOrderHandler(mockSvc)
			r := chi.NewRouter()
			r.Post("/orders", h.CreateOrder)

			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestOrderHandler_GetOrderByID(t *testing.T) {
	orderID := "550e8400-e29b-41d4-a716-446655440000"

	tests := []struct {
		name           string
		id             string
		getOrderByID   func(ctx context.Context, id uuid.UUID) (*order.Order, error)
		expectedStatus int
	}{
		{
			name: "success",
			id:   orderID,
			getOrderByID: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return &order.Order{ID: id, OrderNumber: "order-123", Status: order.StatusPending, Items: []order.Item{}}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not_found",
			id:   "999e8400-e29b-41d4-a716-446655440000",
			getOrderByID: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid_id",
			id:             "not-a-uuid",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := newMockOrderService()
			if tt.getOrderByID != nil {
				mockSvc.getOrderByIDFunc = tt.getOrderByID
			}

			h := NewOrderHandler(mockSvc)
			req := requestWithID(http.MethodGet, "/orders/"+tt.id, tt.id, "")
			w := httptest.NewRecorder()

			h.GetOrderByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
