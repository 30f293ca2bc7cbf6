package checkout

import "time"

// Checkout is the snapshot taken when the payer leaves for the
// provider page: the signed amount string, the cart total and the
// per-item prices at that moment. Immutable except for Status.
type Checkout struct {
	TxnID       string    `json:"txn_id"`
	UserID      string    `json:"user_id"`
	Amount      string    `json:"amount"` // exactly as signed
	ProductInfo string    `json:"product_info"`
	TotalCents  int       `json:"total_cents"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CheckoutItem struct {
	TxnID      string `json:"txn_id"`
	ProjectID  string `json:"project_id"`
	Title      string `json:"title"`
	PriceCents int    `json:"price_cents"`
}

// Purchase is append-only: one row per item per completed checkout,
// never mutated afterwards.
type Purchase struct {
	ID          string    `json:"id"`
	TxnID       string    `json:"txn_id"`
	ProjectID   string    `json:"project_id"`
	UserID      string    `json:"user_id"`
	PriceCents  int       `json:"price_cents"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// Sale is the admin back-office view of a purchase.
type Sale struct {
	Purchase
	ProjectTitle string `json:"project_title"`
	BuyerEmail   string `json:"buyer_email"`
}
