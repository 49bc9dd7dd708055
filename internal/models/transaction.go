package models

// Transaction tracks the financial state of an order.
// Invariant: due = amount - paid. An order with paid > 0 cannot be
// cancelled through the API; refunds are a manual process.
type Transaction struct {
	ID        int     `json:"id" db:"id"`
	OrderID   int     `json:"order_id" db:"order_id"`
	Amount    float64 `json:"amount" db:"amount"`
	Paid      float64 `json:"paid" db:"paid"`
	Due       float64 `json:"due" db:"due"`
	CreatedAt int64   `json:"created_at" db:"created_at"`
	UpdatedAt int64   `json:"updated_at" db:"updated_at"`
}
