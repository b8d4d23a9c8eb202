package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/handler"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/inventory"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/payment"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/register"
)

func NewRouter(pool *pgxpool.Pool, provider payment.ProviderClient, notifier order.ReadyNotifier) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	orderRepo := order.NewRepository(pool)
	orderSvc := order.NewService(orderRepo, notifier)

	inventorySvc := inventory.NewService(inventory.NewRepository(pool))
	registerRepo := register.NewRepository(pool)
	paymentSvc := payment.NewService(orderSvc, inventorySvc, registerRepo, provider)

	handler.NewOrderHandler(orderSvc).RegisterRoutes(r)
	handler.NewPaymentHandler(paymentSvc).RegisterRoutes(r)

	return r
}
