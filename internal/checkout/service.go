package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sokoflow/marketplace/internal/domain"
)

// Service runs the checkout pipeline: validation, stock reservation, order
// assembly, payment initiation, status polling and compensation. Stock is
// decremented at assembly time; a failed or abandoned payment releases it
// through the explicit cancel path.
type Service struct {
	catalog   CatalogStore
	orders    OrderStore
	attempts  AttemptStore
	gateway   PaymentGateway
	finalizer Finalizer
	producer  EventPublisher
	logger    *slog.Logger
}

func NewService(catalog CatalogStore, orders OrderStore, attempts AttemptStore, gateway PaymentGateway, finalizer Finalizer, producer EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		catalog:   catalog,
		orders:    orders,
		attempts:  attempts,
		gateway:   gateway,
		finalizer: finalizer,
		producer:  producer,
		logger:    logger,
	}
}

type SubmitRequest struct {
	BuyerID       string
	Lines         []domain.CheckoutLine
	Delivery      domain.DeliveryInfo
	PaymentMethod domain.PaymentMethod
	Phone         string
}

type SubmitResult struct {
	OrderIDs    []string
	TotalAmount int64
	ReferenceID string
}

// Submit processes one buyer checkout end to end. On success the buyer gets
// one order per seller; a mobile-money checkout additionally gets the
// processor reference to poll. Any failure after reservation leaves no trace:
// decrements are reversed and created orders deleted before the error
// returns.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	rcpt, snapshot, err := s.validate(ctx, req.BuyerID, req.Lines)
	if err != nil {
		return nil, err
	}

	applied, err := s.reserve(ctx, rcpt, snapshot)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	orders := make([]*domain.Order, 0, len(rcpt.drafts))
	orderIDs := make([]string, 0, len(rcpt.drafts))

	for _, draft := range rcpt.drafts {
		order := &domain.Order{
			ID:            uuid.New().String(),
			BuyerID:       req.BuyerID,
			SellerID:      draft.sellerID,
			Total:         draft.total,
			Status:        domain.OrderStatusPending,
			PaymentStatus: domain.PaymentStatusPending,
			Delivery:      req.Delivery,
			CreatedAt:     now,
		}
		for _, line := range draft.lines {
			line.OrderID = order.ID
			order.Lines = append(order.Lines, line)
		}

		if err := s.orders.Create(ctx, order); err != nil {
			s.compensate(ctx, applied, orderIDs)
			return nil, fmt.Errorf("create order for seller %s: %w", draft.sellerID, err)
		}
		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}

	result := &SubmitResult{OrderIDs: orderIDs, TotalAmount: rcpt.grandTotal}

	switch req.PaymentMethod {
	case domain.PaymentMethodCashOnDelivery:
		if err := s.orders.UpdateStatus(ctx, orderIDs, domain.OrderStatusConfirmed, domain.PaymentStatusCashOnDelivery); err != nil {
			s.compensate(ctx, applied, orderIDs)
			return nil, fmt.Errorf("confirm cash order: %w", err)
		}

	default:
		reference, err := s.gateway.Initiate(ctx, req.Phone, rcpt.grandTotal, map[string]string{
			"buyer_id":    req.BuyerID,
			"order_count": strconv.Itoa(len(orderIDs)),
		})
		if err != nil {
			s.compensate(ctx, applied, orderIDs)
			s.logger.Error("payment initiation failed", "error", err, "buyer_id", req.BuyerID)
			return nil, fmt.Errorf("%w: %v", ErrPaymentInitiation, err)
		}

		attempt := &domain.PaymentAttempt{
			Reference: reference,
			OrderIDs:  orderIDs,
			Amount:    rcpt.grandTotal,
			Phone:     req.Phone,
			Status:    domain.AttemptStatusPending,
			CreatedAt: now,
		}
		if err := s.attempts.Create(ctx, attempt); err != nil {
			s.compensate(ctx, applied, orderIDs)
			return nil, fmt.Errorf("persist payment attempt: %w", err)
		}
		result.ReferenceID = reference
	}

	s.publishOrderEvents(ctx, orders)

	s.logger.Info("checkout submitted",
		"buyer_id", req.BuyerID,
		"orders", len(orderIDs),
		"total", rcpt.grandTotal,
		"method", req.PaymentMethod,
	)
	return result, nil
}

// PaymentStatus polls the processor for a pending attempt and finalizes the
// covered orders when the processor reports success. Attempts that already
// reached a terminal status are returned as stored, so resumed pollers never
// re-drive confirmation.
func (s *Service) PaymentStatus(ctx context.Context, reference string) (domain.AttemptStatus, error) {
	attempt, err := s.attempts.GetByReference(ctx, reference)
	if err != nil {
		return "", fmt.Errorf("load payment attempt: %w", err)
	}
	if attempt == nil {
		return "", ErrAttemptNotFound
	}
	if attempt.Status.Terminal() {
		return attempt.Status, nil
	}

	status, err := s.gateway.PollStatus(ctx, reference)
	if err != nil {
		return "", fmt.Errorf("poll payment status: %w", err)
	}

	switch status {
	case domain.AttemptStatusPending:
		return status, nil

	case domain.AttemptStatusSuccessful:
		if err := s.finalizer.Confirm(ctx, attempt); err != nil {
			return "", fmt.Errorf("finalize payment %s: %w", reference, err)
		}
		return status, nil

	default:
		if _, err := s.attempts.UpdateStatus(ctx, reference, status); err != nil {
			return "", fmt.Errorf("record payment failure: %w", err)
		}
		s.logger.Info("payment attempt failed", "reference", reference, "status", status)
		return status, nil
	}
}

// CancelPayment is the explicit retry/abandon action: it releases the stock
// reserved by an unpaid checkout and cancels its orders. Orders already
// cancelled are skipped, so a repeated cancel does not restock twice.
func (s *Service) CancelPayment(ctx context.Context, reference string) error {
	attempt, err := s.attempts.GetByReference(ctx, reference)
	if err != nil {
		return fmt.Errorf("load payment attempt: %w", err)
	}
	if attempt == nil {
		return ErrAttemptNotFound
	}
	if attempt.Status == domain.AttemptStatusSuccessful {
		return ErrAttemptSettled
	}

	if _, err := s.attempts.UpdateStatus(ctx, reference, domain.AttemptStatusFailed); err != nil {
		return fmt.Errorf("close payment attempt: %w", err)
	}

	for _, orderID := range attempt.OrderIDs {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order %s: %w", orderID, err)
		}
		if order == nil {
			continue
		}

		cancelled, err := s.orders.Cancel(ctx, orderID)
		if err != nil {
			return fmt.Errorf("cancel order %s: %w", orderID, err)
		}
		if !cancelled {
			continue
		}

		for _, line := range order.Lines {
			s.restock(ctx, line.ItemID, line.Quantity)
		}
	}

	s.logger.Info("payment cancelled", "reference", reference, "orders", len(attempt.OrderIDs))
	return nil
}

// restock returns quantity to the catalog through the conditional-update
// protocol: read the current value, then increment only while it still
// holds. Bounded retries absorb interleaved checkouts on the same item.
func (s *Service) restock(ctx context.Context, itemID string, quantity int) {
	for attempt := 0; attempt < 5; attempt++ {
		items, err := s.catalog.GetItems(ctx, []string{itemID})
		if err != nil || len(items) == 0 {
			s.logger.Error("failed to read item for restock", "error", err, "item_id", itemID)
			return
		}
		item := items[0]

		status := item.Status
		if status == domain.ItemStatusOutOfStock && item.Quantity+quantity > 0 {
			status = domain.ItemStatusActive
		}

		ok, err := s.catalog.ConditionalRestore(ctx, itemID, item.Quantity, quantity, status)
		if err != nil {
			s.logger.Error("failed to restock item", "error", err, "item_id", itemID, "quantity", quantity)
			return
		}
		if ok {
			return
		}
	}
	s.logger.Error("gave up restocking item after repeated conflicts", "item_id", itemID, "quantity", quantity)
}

func (s *Service) Order(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) SellerOrders(ctx context.Context, sellerID string) ([]domain.Order, error) {
	return s.orders.ListBySeller(ctx, sellerID)
}

func (s *Service) publishOrderEvents(ctx context.Context, orders []*domain.Order) {
	if s.producer == nil {
		return
	}
	for _, order := range orders {
		event := domain.OrderCreatedEvent{
			OrderID:   order.ID,
			BuyerID:   order.BuyerID,
			SellerID:  order.SellerID,
			Lines:     order.Lines,
			Total:     order.Total,
			Timestamp: order.CreatedAt,
		}
		if err := s.producer.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}
}
