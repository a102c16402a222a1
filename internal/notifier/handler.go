package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sokoflow/marketplace/internal/domain"
)

// Handler turns checkout events into buyer and seller notifications. Delivery
// is fire and forget from the pipeline's perspective; this worker is the only
// component that waits on the notification service.
type Handler struct {
	notifyServiceURL string
	httpClient       *http.Client
	logger           *slog.Logger
}

func NewHandler(notifyServiceURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		notifyServiceURL: notifyServiceURL,
		httpClient:       client,
		logger:           logger,
	}
}

func (h *Handler) HandleOrderCreated(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID, "seller_id", event.SellerID)

	if err := h.notify(ctx, event.SellerID,
		"New order "+event.OrderID,
		fmt.Sprintf("You received an order with %d items totalling %d.", len(event.Lines), event.Total),
	); err != nil {
		return fmt.Errorf("notify seller: %w", err)
	}

	if err := h.notify(ctx, event.BuyerID,
		"Order placed: "+event.OrderID,
		fmt.Sprintf("Your order of %d items was placed and is awaiting payment.", len(event.Lines)),
	); err != nil {
		return fmt.Errorf("notify buyer: %w", err)
	}

	return nil
}

func (h *Handler) HandlePaymentConfirmed(ctx context.Context, payload []byte) error {
	var event domain.PaymentConfirmedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal payment confirmed event: %w", err)
	}

	h.logger.Info("processing payment confirmed event", "reference", event.Reference, "orders", len(event.OrderIDs))

	for _, orderID := range event.OrderIDs {
		if err := h.notify(ctx, orderID,
			"Payment received for order "+orderID,
			fmt.Sprintf("Payment of %d was confirmed under reference %s.", event.Amount, event.Reference),
		); err != nil {
			return fmt.Errorf("notify order %s: %w", orderID, err)
		}
	}

	return nil
}

func (h *Handler) notify(ctx context.Context, recipient, subject, body string) error {
	data, err := json.Marshal(map[string]string{
		"recipient": recipient,
		"subject":   subject,
		"body":      body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.notifyServiceURL+"/notify", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	return nil
}
