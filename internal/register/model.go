package register

import (
	"time"

	"github.com/gofrs/uuid"
)

// Register holds per-register running totals. Counters only ever grow, one
// additive update per completed order.
type Register struct {
	ID            uuid.UUID `json:"id"`
	BusinessID    uuid.UUID `json:"business_id"`
	Name          string    `json:"name"`
	TotalSales    float64   `json:"total_sales"`
	TotalCash     float64   `json:"total_cash"`
	TotalTerminal float64   `json:"total_terminal"`
	SaleCount     int       `json:"sale_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
