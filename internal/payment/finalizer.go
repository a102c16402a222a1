package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sokoflow/marketplace/internal/domain"
)

type OrderConfirmer interface {
	UpdateStatus(ctx context.Context, ids []string, status domain.OrderStatus, payment domain.PaymentStatus) error
}

type AttemptCloser interface {
	UpdateStatus(ctx context.Context, reference string, status domain.AttemptStatus) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Finalizer applies a successful payment to the orders it covers: payment
// status paid, order status confirmed, attempt closed, confirmation event
// published.
type Finalizer struct {
	orders   OrderConfirmer
	attempts AttemptCloser
	producer EventPublisher
	logger   *slog.Logger
}

func NewFinalizer(orders OrderConfirmer, attempts AttemptCloser, producer EventPublisher, logger *slog.Logger) *Finalizer {
	return &Finalizer{
		orders:   orders,
		attempts: attempts,
		producer: producer,
		logger:   logger,
	}
}

func (f *Finalizer) Confirm(ctx context.Context, attempt *domain.PaymentAttempt) error {
	transitioned, err := f.attempts.UpdateStatus(ctx, attempt.Reference, domain.AttemptStatusSuccessful)
	if err != nil {
		return fmt.Errorf("close attempt %s: %w", attempt.Reference, err)
	}
	if !transitioned {
		// Another poll already confirmed this attempt.
		return nil
	}

	if err := f.orders.UpdateStatus(ctx, attempt.OrderIDs, domain.OrderStatusConfirmed, domain.PaymentStatusPaid); err != nil {
		return fmt.Errorf("confirm orders for %s: %w", attempt.Reference, err)
	}

	if f.producer != nil {
		event := domain.PaymentConfirmedEvent{
			Reference: attempt.Reference,
			OrderIDs:  attempt.OrderIDs,
			Amount:    attempt.Amount,
			Timestamp: time.Now().UTC(),
		}
		if err := f.producer.Publish(ctx, attempt.Reference, event); err != nil {
			f.logger.Error("failed to publish payment confirmed event", "error", err, "reference", attempt.Reference)
		}
	}

	f.logger.Info("payment confirmed", "reference", attempt.Reference, "orders", len(attempt.OrderIDs), "amount", attempt.Amount)
	return nil
}
