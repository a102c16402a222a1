package domain

type ItemStatus string

const (
	ItemStatusActive     ItemStatus = "active"
	ItemStatusOutOfStock ItemStatus = "out_of_stock"
)

// Item is a catalog row as seen by the checkout pipeline. The catalog owns
// these rows; checkout only reads them and mutates quantity through the
// conditional-update protocol.
type Item struct {
	ID       string     `json:"id"`
	SellerID string     `json:"seller_id"`
	Price    int64      `json:"price"`
	Quantity int        `json:"quantity"`
	Status   ItemStatus `json:"status"`
}

// CheckoutLine is one requested item in a checkout. It exists only for the
// duration of a single checkout request.
type CheckoutLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}
