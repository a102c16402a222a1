package domain

import "time"

type OrderCreatedEvent struct {
	OrderID   string      `json:"order_id"`
	BuyerID   string      `json:"buyer_id"`
	SellerID  string      `json:"seller_id"`
	Lines     []OrderLine `json:"lines"`
	Total     int64       `json:"total"`
	Timestamp time.Time   `json:"timestamp"`
}

type PaymentConfirmedEvent struct {
	Reference string    `json:"reference"`
	OrderIDs  []string  `json:"order_ids"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}
