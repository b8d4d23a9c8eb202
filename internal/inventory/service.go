package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
)

type Service interface {
	DeductForOrder(ctx context.Context, ord *order.Order) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// DeductForOrder applies the sale to the stock ledger: one movement row and
// one stock write per tracked line item. The movement insert goes first —
// its unique (order_id, product_id) index is what makes a replayed
// confirmation a no-op instead of a double deduction. Missing products and
// untracked items are skipped; stock going negative is logged as an
// oversell and applied anyway.
func (s *service) DeductForOrder(ctx context.Context, ord *order.Order) error {
	var failed int

	for i := range ord.Items {
		item := &ord.Items[i]

		product, err := s.repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				log.Warn().Stringer("order_id", ord.ID).Stringer("product_id", item.ProductID).Msg("inventory: product not found, skipping deduction")
				continue
			}
			log.Error().Err(err).Stringer("order_id", ord.ID).Stringer("product_id", item.ProductID).Msg("inventory: failed to fetch product for deduction")
			failed++
			continue
		}
		if !product.TrackStock {
			continue
		}

		newStock := product.StockQuantity - item.Quantity
		if newStock < 0 {
			log.Warn().
				Stringer("order_id", ord.ID).
				Stringer("product_id", item.ProductID).
				Int("stock_quantity", product.StockQuantity).
				Int("quantity", item.Quantity).
				Msg("inventory: oversold product, stock going negative")
		}

		movement := &StockMovement{
			ProductID:     item.ProductID,
			OrderID:       ord.ID,
			MovementType:  MovementTypeSale,
			Quantity:      -item.Quantity,
			PreviousStock: product.StockQuantity,
			NewStock:      newStock,
		}
		if err := s.repo.AppendMovement(ctx, movement); err != nil {
			if errors.Is(err, ErrDuplicateMovement) {
				log.Info().Stringer("order_id", ord.ID).Stringer("product_id", item.ProductID).Msg("inventory: movement already recorded, skipping deduction")
				continue
			}
			log.Error().Err(err).Stringer("order_id", ord.ID).Stringer("product_id", item.ProductID).Msg("inventory: failed to append stock movement")
			failed++
			continue
		}

		if err := s.repo.UpdateStock(ctx, item.ProductID, newStock); err != nil {
			log.Error().Err(err).Stringer("order_id", ord.ID).Stringer("product_id", item.ProductID).Msg("inventory: failed to write new stock")
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("inventory: failed to deduct stock for %d items of order %s", failed, ord.ID)
	}
	return nil
}
