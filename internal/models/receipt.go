package models

// Receipt is a proof-of-delivery artifact recorded against an order.
// At least one receipt must exist before an order can be delivered.
type Receipt struct {
	ID        int     `json:"id" db:"id"`
	OrderID   int     `json:"order_id" db:"order_id"`
	FileURL   string  `json:"file_url" db:"file_url"`
	FileType  *string `json:"file_type,omitempty" db:"file_type"`
	CreatedAt int64   `json:"created_at" db:"created_at"`
}
