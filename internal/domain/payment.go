package domain

import "time"

// AttemptStatus mirrors the states reported by the mobile-money processor.
type AttemptStatus string

const (
	AttemptStatusPending    AttemptStatus = "PENDING"
	AttemptStatusSuccessful AttemptStatus = "SUCCESSFUL"
	AttemptStatusFailed     AttemptStatus = "FAILED"
	AttemptStatusRejected   AttemptStatus = "REJECTED"
	AttemptStatusTimeout    AttemptStatus = "TIMEOUT"
)

// Terminal reports whether no further status polls can change the attempt.
func (s AttemptStatus) Terminal() bool {
	return s != AttemptStatusPending
}

// PaymentAttempt correlates one processor charge with the set of orders it
// covers. Reference is the opaque id issued by the processor at initiation.
type PaymentAttempt struct {
	Reference string        `json:"reference"`
	OrderIDs  []string      `json:"order_ids"`
	Amount    int64         `json:"amount"`
	Phone     string        `json:"phone"`
	Status    AttemptStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CheckoutSession is the client-persisted record of an in-flight checkout.
// It survives reloads so the poller can resume the same payment reference
// instead of initiating a second charge.
type CheckoutSession struct {
	OrderIDs      []string      `json:"order_ids"`
	TotalAmount   int64         `json:"total_amount"`
	ReferenceID   string        `json:"reference_id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Delivery      DeliveryInfo  `json:"delivery"`
	CreatedAt     time.Time     `json:"created_at"`
}
