package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrStatusConflict means the conditional status write matched no row:
	// a concurrent request moved the order off the status we validated against.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

type Repository interface {
	Create(ctx context.Context, ord *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByStatus(ctx context.Context, status Status) ([]Order, error)
	FindPendingPayment(ctx context.Context, paymentReference string) (*Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to Status, cancellationReason *string) error
	SetNotificationSent(ctx context.Context, orderID uuid.UUID) error
	InsertHistory(ctx context.Context, record *StatusHistory) error
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistory, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `id, business_id, order_number, status, payment_method, payment_reference,
		cash_register_id, cancellation_reason, notification_sent,
		subtotal, tax, tip, total, created_at, updated_at,
		confirmed_at, started_preparing_at, ready_at, picked_up_at, completed_at, cancelled_at`

func (r *postgresRepository) Create(ctx context.Context, ord *Order) (err error) {
	if ord.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		ord.ID = genID
	}

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", ord.ID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	now := time.Now().UTC()
	ord.CreatedAt = now
	ord.UpdatedAt = now

	queryOrder := `
		INSERT INTO orders (id, business_id, order_number, status, payment_method, payment_reference,
			cash_register_id, notification_sent, subtotal, tax, tip, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.Exec(ctx, queryOrder,
		ord.ID,
		ord.BusinessID,
		ord.OrderNumber,
		string(ord.Status),
		string(ord.PaymentMethod),
		ord.PaymentReference,
		ord.CashRegisterID,
		ord.NotificationSent,
		ord.Subtotal,
		ord.Tax,
		ord.Tip,
		ord.Total,
		ord.CreatedAt,
		ord.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i := range ord.Items {
		item := &ord.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
			return err
		}
		item.ID = itemID
		item.OrderID = ord.ID
		item.CreatedAt = now

		_, err = tx.Exec(ctx, queryItem,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.UnitPrice,
			item.Notes,
			item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", ord.ID, err)
		}
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	ord, err := r.scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	if err := r.loadItems(ctx, ord); err != nil {
		return nil, err
	}
	return ord, nil
}

// FindPendingPayment resolves a provider callback to the sale it settles:
// a clip order still awaiting payment whose stored reference matches.
func (r *postgresRepository) FindPendingPayment(ctx context.Context, paymentReference string) (*Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE payment_reference = $1 AND status = $2 AND payment_method = $3
		ORDER BY created_at
		LIMIT 1
	`

	ord, err := r.scanOrder(r.db.QueryRow(ctx, query, paymentReference, string(StatusPendingPayment), string(PaymentTerminal)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select pending payment order by reference %s: %w", paymentReference, err)
	}

	if err := r.loadItems(ctx, ord); err != nil {
		return nil, err
	}
	return ord, nil
}

func (r *postgresRepository) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders by status %s: %w", status, err)
	}
	defer rows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for rows.Next() {
		ord, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order by status %s: %w", status, err)
		}
		ord.Items = make([]Item, 0)
		ordersMap[ord.ID] = ord
		orderIDs = append(orderIDs, ord.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders by status %s: %w", status, err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	itemsQuery := `
		SELECT id, order_id, product_id, name, quantity, unit_price, notes, created_at
		FROM order_items
		WHERE order_id = ANY($1)
	`
	itemRows, err := r.db.Query(ctx, itemsQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items by status %s: %w", status, err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item Item
		err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.UnitPrice,
			&item.Notes,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item by status %s: %w", status, err)
		}
		if ord, ok := ordersMap[item.OrderID]; ok {
			ord.Items = append(ord.Items, item)
		}
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order items by status %s: %w", status, err)
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		if ord, ok := ordersMap[id]; ok {
			result = append(result, *ord)
		}
	}
	return result, nil
}

// UpdateStatus performs the conditional status write: the row is updated only
// while it still holds the status the caller validated the transition from.
// Exactly one timestamp column is stamped per entered status, chosen from
// the static TimestampColumn mapping, so column names never come from input.
func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to Status, cancellationReason *string) error {
	now := time.Now().UTC()

	set := "status = $1, updated_at = $2"
	args := []any{string(to), now}

	if col, ok := TimestampColumn(to); ok {
		set += fmt.Sprintf(", %s = $%d", col, len(args)+1)
		args = append(args, now)
	}
	if to == StatusCancelled {
		set += fmt.Sprintf(", cancellation_reason = $%d", len(args)+1)
		args = append(args, cancellationReason)
	}

	args = append(args, orderID, string(from))
	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d AND status = $%d", set, len(args)-1, len(args))

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("new_status", string(to)).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		log.Warn().Stringer("order_id", orderID).Str("expected_status", string(from)).Str("new_status", string(to)).Msg("repository: conditional status update matched no row")
		return ErrStatusConflict
	}
	return nil
}

func (r *postgresRepository) SetNotificationSent(ctx context.Context, orderID uuid.UUID) error {
	query := `UPDATE orders SET notification_sent = TRUE, updated_at = $1 WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to set notification flag for order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepository) InsertHistory(ctx context.Context, record *StatusHistory) error {
	if record.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate history ID: %w", genErr)
		}
		record.ID = genID
	}
	record.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO order_status_history (id, order_id, old_status, new_status, changed_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.OrderID,
		record.OldStatus,
		string(record.NewStatus),
		record.ChangedBy,
		record.Notes,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert status history for order %s: %w", record.OrderID, err)
	}
	return nil
}

func (r *postgresRepository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistory, error) {
	query := `
		SELECT id, order_id, old_status, new_status, changed_by, notes, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query status history for order %s: %w", orderID, err)
	}
	defer rows.Close()

	records := make([]StatusHistory, 0)
	for rows.Next() {
		var rec StatusHistory
		err := rows.Scan(
			&rec.ID,
			&rec.OrderID,
			&rec.OldStatus,
			&rec.NewStatus,
			&rec.ChangedBy,
			&rec.Notes,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan status history for order %s: %w", orderID, err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating status history for order %s: %w", orderID, err)
	}
	return records, nil
}

func (r *postgresRepository) scanOrder(row pgx.Row) (*Order, error) {
	var ord Order
	err := row.Scan(
		&ord.ID,
		&ord.BusinessID,
		&ord.OrderNumber,
		&ord.Status,
		&ord.PaymentMethod,
		&ord.PaymentReference,
		&ord.CashRegisterID,
		&ord.CancellationReason,
		&ord.NotificationSent,
		&ord.Subtotal,
		&ord.Tax,
		&ord.Tip,
		&ord.Total,
		&ord.CreatedAt,
		&ord.UpdatedAt,
		&ord.ConfirmedAt,
		&ord.StartedPreparingAt,
		&ord.ReadyAt,
		&ord.PickedUpAt,
		&ord.CompletedAt,
		&ord.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

func (r *postgresRepository) loadItems(ctx context.Context, ord *Order) error {
	query := `
		SELECT id, order_id, product_id, name, quantity, unit_price, notes, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, ord.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items for order id %s: %w", ord.ID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.UnitPrice,
			&item.Notes,
			&item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order item for order id %s: %w", ord.ID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating order items for order id %s: %w", ord.ID, err)
	}

	ord.Items = items
	return nil
}
