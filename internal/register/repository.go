package register

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
)

var ErrRegisterNotFound = errors.New("cash register not found")

// methodColumns maps a payment method to the per-method bucket it feeds.
// Clip terminal and card payments both land in total_terminal.
var methodColumns = map[order.PaymentMethod]string{
	order.PaymentCash:     "total_cash",
	order.PaymentCard:     "total_terminal",
	order.PaymentTerminal: "total_terminal",
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Register, error)
	IncrementTotals(ctx context.Context, id uuid.UUID, amount float64, method order.PaymentMethod) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Register, error) {
	query := `
		SELECT id, business_id, name, total_sales, total_cash, total_terminal, sale_count, created_at, updated_at
		FROM cash_registers
		WHERE id = $1
	`

	var reg Register
	err := r.db.QueryRow(ctx, query, id).Scan(
		&reg.ID,
		&reg.BusinessID,
		&reg.Name,
		&reg.TotalSales,
		&reg.TotalCash,
		&reg.TotalTerminal,
		&reg.SaleCount,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegisterNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cash register by id %s: %w", id, err)
	}
	return &reg, nil
}

// IncrementTotals applies one completed sale to the register as a single
// additive UPDATE, so concurrent orders closing against the same register
// accumulate without read-modify-write races. The bucket column comes from
// the static methodColumns map, never from request input.
func (r *postgresRepository) IncrementTotals(ctx context.Context, id uuid.UUID, amount float64, method order.PaymentMethod) error {
	bucket, ok := methodColumns[method]
	if !ok {
		return fmt.Errorf("repository: no register bucket for payment method %q", method)
	}

	query := fmt.Sprintf(`
		UPDATE cash_registers
		SET total_sales = total_sales + $1,
			%s = %s + $1,
			sale_count = sale_count + 1,
			updated_at = $2
		WHERE id = $3
	`, bucket, bucket)

	cmdTag, err := r.db.Exec(ctx, query, amount, time.Now().UTC(), id)
	if err != nil {
		log.Error().Err(err).Stringer("register_id", id).Float64("amount", amount).Msg("repository: failed to increment register totals")
		return fmt.Errorf("repository: failed to increment totals for register %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrRegisterNotFound
	}
	return nil
}
