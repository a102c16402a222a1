package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"
	PaymentStatusPaid           PaymentStatus = "paid"
	PaymentStatusCashOnDelivery PaymentStatus = "cash_on_delivery"
	PaymentStatusFailed         PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodMobileMoney    PaymentMethod = "mobile_money"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

type DeliveryInfo struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes,omitempty"`
}

// OrderLine records a purchased item with its unit price frozen at purchase
// time. LineTotal is always Quantity * UnitPrice; later catalog price changes
// never touch it.
type OrderLine struct {
	OrderID   string `json:"order_id"`
	ItemID    string `json:"item_id"`
	SellerID  string `json:"seller_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

// Order belongs to exactly one seller. A checkout spanning N sellers produces
// N orders sharing one payment attempt.
type Order struct {
	ID            string        `json:"id"`
	BuyerID       string        `json:"buyer_id"`
	SellerID      string        `json:"seller_id"`
	Lines         []OrderLine   `json:"lines"`
	Total         int64         `json:"total"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Delivery      DeliveryInfo  `json:"delivery"`
	CreatedAt     time.Time     `json:"created_at"`
}
