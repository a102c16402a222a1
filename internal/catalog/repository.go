package catalog

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/sokoflow/marketplace/internal/domain"
)

// Repository is the checkout pipeline's view of the catalog: one bulk read
// for price/availability snapshots, plus the conditional quantity updates
// that make stock reservation safe under concurrent checkouts.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetItems(ctx context.Context, ids []string) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, seller_id, price, quantity, status
		FROM items
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.SellerID, &item.Price, &item.Quantity, &item.Status); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *Repository) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item := &domain.Item{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, seller_id, price, quantity, status
		FROM items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.SellerID, &item.Price, &item.Quantity, &item.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return item, nil
}

func (r *Repository) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, seller_id, price, quantity, status
		FROM items
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.SellerID, &item.Price, &item.Quantity, &item.Status); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// ConditionalDecrement subtracts delta from the item's quantity only if the
// stored quantity still equals expected. The status flips to out_of_stock
// exactly when the result reaches zero. Returns false when the row no longer
// matches, which means another checkout won the race.
func (r *Repository) ConditionalDecrement(ctx context.Context, id string, expected, delta int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE items
		SET quantity = quantity - $3,
		    status = CASE WHEN quantity - $3 = 0 THEN 'out_of_stock' ELSE status END
		WHERE id = $1 AND quantity = $2
	`, id, expected, delta)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// ConditionalRestore is the inverse of ConditionalDecrement: it adds delta
// back only while the stored quantity still equals expected, and resets the
// lifecycle status to the value observed before the decrement. A zero-row
// result means the restore already happened, which keeps compensation
// idempotent.
func (r *Repository) ConditionalRestore(ctx context.Context, id string, expected, delta int, status domain.ItemStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE items
		SET quantity = quantity + $3, status = $4
		WHERE id = $1 AND quantity = $2
	`, id, expected, delta, status)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}
