package checkout

import "errors"

// Validation failures: reported before any side effect is applied.
var (
	ErrInvalidQuantity       = errors.New("quantity must be a positive integer")
	ErrItemsNotFound         = errors.New("one or more items not found")
	ErrItemUnavailable       = errors.New("item not available for purchase")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrSelfPurchaseForbidden = errors.New("buyers cannot purchase their own items")
)

// ErrStockConflict means a concurrent checkout changed an item between the
// snapshot read and the reservation. All decrements applied by the losing
// checkout are reversed before this surfaces; the caller may retry the whole
// checkout from a fresh snapshot.
var ErrStockConflict = errors.New("stock changed concurrently")

// Payment failures.
var (
	ErrPaymentInitiation = errors.New("payment initiation failed")
	ErrAttemptNotFound   = errors.New("payment attempt not found")
	ErrAttemptSettled    = errors.New("payment attempt already settled")
)
