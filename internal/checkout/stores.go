package checkout

import (
	"context"

	"github.com/sokoflow/marketplace/internal/domain"
)

// CatalogStore is the slice of the catalog the pipeline needs: one bulk
// snapshot read plus the conditional quantity updates. Quantity is never
// written unconditionally by any caller.
type CatalogStore interface {
	GetItems(ctx context.Context, ids []string) ([]domain.Item, error)
	ConditionalDecrement(ctx context.Context, id string, expected, delta int) (bool, error)
	ConditionalRestore(ctx context.Context, id string, expected, delta int, status domain.ItemStatus) (bool, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, ids []string, status domain.OrderStatus, payment domain.PaymentStatus) error
	// Cancel transitions a pending order to cancelled and reports whether
	// this call performed the transition.
	Cancel(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.Order, error)
}

type AttemptStore interface {
	Create(ctx context.Context, attempt *domain.PaymentAttempt) error
	GetByReference(ctx context.Context, reference string) (*domain.PaymentAttempt, error)
	// UpdateStatus moves a PENDING attempt to the given status and reports
	// whether this call performed the transition.
	UpdateStatus(ctx context.Context, reference string, status domain.AttemptStatus) (bool, error)
}

// PaymentGateway is the adapter to the external mobile-money processor.
type PaymentGateway interface {
	Initiate(ctx context.Context, phone string, amount int64, metadata map[string]string) (string, error)
	PollStatus(ctx context.Context, reference string) (domain.AttemptStatus, error)
}

// Finalizer transitions an attempt's covered orders to their paid state once
// the processor reports success.
type Finalizer interface {
	Confirm(ctx context.Context, attempt *domain.PaymentAttempt) error
}

// EventPublisher emits fire-and-forget domain events. Publication failures
// are logged, never surfaced to the buyer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}
