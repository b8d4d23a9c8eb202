package inventory

import (
	"time"

	"github.com/gofrs/uuid"
)

type Product struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stock_quantity"`
	TrackStock    bool      `json:"track_stock"`
}

// StockMovement is the append-only ledger row written once per order and
// product: previous and new stock around a quantity delta, tied back to the
// order that caused it. Negative Quantity means stock left the shelf.
type StockMovement struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	OrderID       uuid.UUID `json:"order_id"`
	MovementType  string    `json:"movement_type"`
	Quantity      int       `json:"quantity"`
	PreviousStock int       `json:"previous_stock"`
	NewStock      int       `json:"new_stock"`
	CreatedAt     time.Time `json:"created_at"`
}

const MovementTypeSale = "sale"
