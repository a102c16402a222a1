package checkout

import (
	"context"
	"fmt"
	"sort"

	"github.com/sokoflow/marketplace/internal/domain"
)

// draftOrder is the pre-persistence shape of one seller's order within a
// checkout: validated lines with price snapshots and the seller subtotal.
type draftOrder struct {
	sellerID string
	lines    []domain.OrderLine
	total    int64
}

// receipt is the outcome of validating one buyer cart against a catalog
// snapshot. It carries no side effects; the snapshot may be stale by commit
// time, which the reservation step resolves.
type receipt struct {
	drafts     []draftOrder
	grandTotal int64
}

// mergeLines deduplicates item ids, summing quantities for repeated ids while
// preserving first-seen order.
func mergeLines(lines []domain.CheckoutLine) ([]domain.CheckoutLine, error) {
	index := make(map[string]int, len(lines))
	merged := make([]domain.CheckoutLine, 0, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %s", ErrInvalidQuantity, line.ItemID)
		}
		if i, ok := index[line.ItemID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ItemID] = len(merged)
		merged = append(merged, line)
	}

	return merged, nil
}

// validate checks the cart against a single catalog read and assembles the
// per-seller receipt. Pure validation: nothing is written.
func (s *Service) validate(ctx context.Context, buyerID string, lines []domain.CheckoutLine) (*receipt, map[string]domain.Item, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, len(merged))
	for i, line := range merged {
		ids[i] = line.ItemID
	}

	items, err := s.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog snapshot: %w", err)
	}
	if len(items) != len(merged) {
		return nil, nil, ErrItemsNotFound
	}

	snapshot := make(map[string]domain.Item, len(items))
	for _, item := range items {
		snapshot[item.ID] = item
	}

	bySeller := make(map[string]*draftOrder)
	var grandTotal int64

	for _, line := range merged {
		item := snapshot[line.ItemID]

		if item.Status != domain.ItemStatusActive {
			return nil, nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.ID)
		}
		if line.Quantity > item.Quantity {
			return nil, nil, fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, item.ID, item.Quantity)
		}
		if item.SellerID == buyerID {
			return nil, nil, fmt.Errorf("%w: %s", ErrSelfPurchaseForbidden, item.ID)
		}

		lineTotal := int64(line.Quantity) * item.Price
		draft, ok := bySeller[item.SellerID]
		if !ok {
			draft = &draftOrder{sellerID: item.SellerID}
			bySeller[item.SellerID] = draft
		}
		draft.lines = append(draft.lines, domain.OrderLine{
			ItemID:    item.ID,
			SellerID:  item.SellerID,
			Quantity:  line.Quantity,
			UnitPrice: item.Price,
			LineTotal: lineTotal,
		})
		draft.total += lineTotal
		grandTotal += lineTotal
	}

	rcpt := &receipt{grandTotal: grandTotal}
	for _, draft := range bySeller {
		rcpt.drafts = append(rcpt.drafts, *draft)
	}
	sort.Slice(rcpt.drafts, func(i, j int) bool {
		return rcpt.drafts[i].sellerID < rcpt.drafts[j].sellerID
	})

	return rcpt, snapshot, nil
}
