package checkout

import (
	"context"
	"fmt"

	"github.com/sokoflow/marketplace/internal/domain"
)

// appliedDecrement records one committed stock decrement so it can be
// reversed if the checkout fails later. After is the quantity immediately
// following the decrement; the restoring increment is conditioned on it,
// which makes compensation safe to run more than once.
type appliedDecrement struct {
	ItemID      string
	Delta       int
	After       int
	PriorStatus domain.ItemStatus
}

// reserve commits the optimistic snapshot line by line. Each line is a
// conditional decrement keyed on the quantity observed in the snapshot; a
// zero-row update means another checkout got there first. The whole checkout
// is all-or-nothing: on the first conflict every decrement already applied
// here is reversed before ErrStockConflict surfaces.
func (s *Service) reserve(ctx context.Context, rcpt *receipt, snapshot map[string]domain.Item) ([]appliedDecrement, error) {
	var applied []appliedDecrement

	for _, draft := range rcpt.drafts {
		for _, line := range draft.lines {
			item := snapshot[line.ItemID]

			ok, err := s.catalog.ConditionalDecrement(ctx, item.ID, item.Quantity, line.Quantity)
			if err != nil {
				s.compensate(ctx, applied, nil)
				return nil, fmt.Errorf("reserve %s: %w", item.ID, err)
			}
			if !ok {
				s.compensate(ctx, applied, nil)
				return nil, fmt.Errorf("%w: %s", ErrStockConflict, item.ID)
			}

			applied = append(applied, appliedDecrement{
				ItemID:      item.ID,
				Delta:       line.Quantity,
				After:       item.Quantity - line.Quantity,
				PriorStatus: item.Status,
			})
		}
	}

	return applied, nil
}

// compensate restores pre-checkout state: every decrement is reversed through
// the inverse conditional update and any order rows created for this checkout
// are deleted. It runs synchronously and completes before the failing request
// returns. Invoking it twice is safe: a restore whose quantity guard no
// longer matches is treated as already applied.
func (s *Service) compensate(ctx context.Context, applied []appliedDecrement, orderIDs []string) {
	for _, id := range orderIDs {
		if err := s.orders.Delete(ctx, id); err != nil {
			s.logger.Error("failed to delete order during compensation", "error", err, "order_id", id)
		}
	}

	for _, dec := range applied {
		ok, err := s.catalog.ConditionalRestore(ctx, dec.ItemID, dec.After, dec.Delta, dec.PriorStatus)
		if err != nil {
			s.logger.Error("failed to restore stock during compensation", "error", err, "item_id", dec.ItemID, "quantity", dec.Delta)
			continue
		}
		if !ok {
			s.logger.Info("stock already restored", "item_id", dec.ItemID, "quantity", dec.Delta)
		}
	}
}
