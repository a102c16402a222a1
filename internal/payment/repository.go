package payment

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/sokoflow/marketplace/internal/domain"
)

type AttemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *domain.PaymentAttempt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_attempts (reference, order_ids, amount, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, attempt.Reference, pq.Array(attempt.OrderIDs), attempt.Amount, attempt.Phone, attempt.Status, attempt.CreatedAt)
	return err
}

func (r *AttemptRepository) GetByReference(ctx context.Context, reference string) (*domain.PaymentAttempt, error) {
	attempt := &domain.PaymentAttempt{}

	err := r.db.QueryRowContext(ctx, `
		SELECT reference, order_ids, amount, phone, status, created_at, updated_at
		FROM payment_attempts
		WHERE reference = $1
	`, reference).Scan(&attempt.Reference, pq.Array(&attempt.OrderIDs), &attempt.Amount,
		&attempt.Phone, &attempt.Status, &attempt.CreatedAt, &attempt.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return attempt, nil
}

// UpdateStatus closes a pending attempt. The status guard means only one
// caller ever performs the transition; late or repeated updates report false
// instead of overwriting a terminal state.
func (r *AttemptRepository) UpdateStatus(ctx context.Context, reference string, status domain.AttemptStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payment_attempts SET status = $2, updated_at = NOW()
		WHERE reference = $1 AND status = $3
	`, reference, status, domain.AttemptStatusPending)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}
