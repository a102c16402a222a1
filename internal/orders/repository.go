package orders

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/sokoflow/marketplace/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create persists one seller's order with its lines. The unit price on each
// line is the snapshot taken at validation time; it never tracks later
// catalog changes.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, seller_id, total, status, payment_status,
			delivery_address, delivery_phone, delivery_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, order.ID, order.BuyerID, order.SellerID, order.Total, order.Status, order.PaymentStatus,
		order.Delivery.Address, order.Delivery.Phone, order.Delivery.Notes, order.CreatedAt)
	if err != nil {
		return err
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, item_id, seller_id, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, order.ID, line.ItemID, line.SellerID, line.Quantity, line.UnitPrice, line.LineTotal)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) UpdateStatus(ctx context.Context, ids []string, status domain.OrderStatus, payment domain.PaymentStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = ANY($1)
	`, pq.Array(ids), status, payment)
	return err
}

// Cancel moves a pending order to cancelled. The rows-affected check makes
// repeated cancels observable to the caller, so stock is only restored for
// the invocation that actually performed the transition.
func (r *Repository) Cancel(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`, id, domain.OrderStatusCancelled, domain.PaymentStatusFailed, domain.OrderStatusPending)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, buyer_id, seller_id, total, status, payment_status,
			delivery_address, delivery_phone, delivery_notes, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.BuyerID, &order.SellerID, &order.Total, &order.Status,
		&order.PaymentStatus, &order.Delivery.Address, &order.Delivery.Phone,
		&order.Delivery.Notes, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, item_id, seller_id, quantity, unit_price, line_total
		FROM order_lines
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.OrderID, &line.ItemID, &line.SellerID, &line.Quantity, &line.UnitPrice, &line.LineTotal); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *Repository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, buyer_id, seller_id, total, status, payment_status,
			delivery_address, delivery_phone, delivery_notes, created_at
		FROM orders
		WHERE seller_id = $1
		ORDER BY created_at DESC
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.BuyerID, &order.SellerID, &order.Total, &order.Status,
			&order.PaymentStatus, &order.Delivery.Address, &order.Delivery.Phone,
			&order.Delivery.Notes, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.Lines = []domain.OrderLine{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	lineRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, item_id, seller_id, quantity, unit_price, line_total
		FROM order_lines
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = lineRows.Close() }()

	for lineRows.Next() {
		var line domain.OrderLine
		if err := lineRows.Scan(&line.OrderID, &line.ItemID, &line.SellerID, &line.Quantity, &line.UnitPrice, &line.LineTotal); err != nil {
			return nil, err
		}
		order := orderMap[line.OrderID]
		order.Lines = append(order.Lines, line)
	}

	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}
