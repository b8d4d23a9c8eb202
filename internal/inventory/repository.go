package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateMovement means a movement for this order and product was
	// already written; the unique index is the exactly-once guard.
	ErrDuplicateMovement = errors.New("stock movement already recorded for this order and product")
)

type Repository interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateStock(ctx context.Context, productID uuid.UUID, newQuantity int) error
	AppendMovement(ctx context.Context, movement *StockMovement) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `SELECT id, name, stock_quantity, track_stock FROM products WHERE id = $1`

	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.StockQuantity, &p.TrackStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) UpdateStock(ctx context.Context, productID uuid.UUID, newQuantity int) error {
	query := `UPDATE products SET stock_quantity = $1 WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, newQuantity, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to update stock for product %s: %w", productID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) AppendMovement(ctx context.Context, movement *StockMovement) error {
	if movement.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate movement ID: %w", genErr)
		}
		movement.ID = genID
	}
	movement.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO stock_movements (id, product_id, order_id, movement_type, quantity, previous_stock, new_stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		movement.ID,
		movement.ProductID,
		movement.OrderID,
		movement.MovementType,
		movement.Quantity,
		movement.PreviousStock,
		movement.NewStock,
		movement.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateMovement
		}
		return fmt.Errorf("repository: failed to insert stock movement for order %s product %s: %w", movement.OrderID, movement.ProductID, err)
	}
	return nil
}
