package models

// OrderStatus is the delivery lifecycle state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAssigned  OrderStatus = "assigned"
	StatusInTransit OrderStatus = "in_transit"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status (no further transitions)
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Order represents a fuel delivery order
type Order struct {
	ID              int         `json:"id" db:"id"`
	CustomerID      int         `json:"customer_id" db:"customer_id"`
	DriverID        *int        `json:"driver_id,omitempty" db:"driver_id"`
	Liters          float64     `json:"liters" db:"liters"`
	Rate            float64     `json:"rate" db:"rate"`
	Amount          float64     `json:"amount" db:"amount"`
	Status          OrderStatus `json:"status" db:"status"`
	OTP             string      `json:"otp" db:"otp"`
	Signature       *string     `json:"signature,omitempty" db:"signature"`
	DeliveryAddress *string     `json:"delivery_address,omitempty" db:"delivery_address"`
	DeliveryLat     *float64    `json:"delivery_lat,omitempty" db:"delivery_lat"`
	DeliveryLng     *float64    `json:"delivery_lng,omitempty" db:"delivery_lng"`
	VehicleNumber   *string     `json:"vehicle_number,omitempty" db:"vehicle_number"`
	CreatedAt       int64       `json:"created_at" db:"created_at"`
	UpdatedAt       int64       `json:"updated_at" db:"updated_at"`
}

// CreateOrderRequest is the request body for POST /api/orders
type CreateOrderRequest struct {
	CustomerID      int      `json:"customer_id"`
	DriverID        *int     `json:"driver_id,omitempty"` // admin may assign immediately
	Liters          float64  `json:"liters"`
	Rate            float64  `json:"rate"`
	DeliveryAddress *string  `json:"delivery_address,omitempty"`
	DeliveryLat     *float64 `json:"delivery_lat,omitempty"`
	DeliveryLng     *float64 `json:"delivery_lng,omitempty"`
	VehicleNumber   *string  `json:"vehicle_number,omitempty"`
}

// UpdateOrderRequest is the request body for PATCH /api/orders/{id}.
// Supplying a signature implies a transition to delivered and is gated
// exactly like an explicit status change.
type UpdateOrderRequest struct {
	Status    *OrderStatus `json:"status,omitempty"`
	DriverID  *int         `json:"driver_id,omitempty"`
	Signature *string      `json:"signature,omitempty"`
	OTPInput  *string      `json:"otp_input,omitempty"`
}

// EditOrderRequest is the request body for PATCH /api/orders/{id}/edit.
// Only pending/assigned orders are editable.
type EditOrderRequest struct {
	Liters          *float64 `json:"liters,omitempty"`
	Rate            *float64 `json:"rate,omitempty"`
	DeliveryAddress *string  `json:"delivery_address,omitempty"`
	DeliveryLat     *float64 `json:"delivery_lat,omitempty"`
	DeliveryLng     *float64 `json:"delivery_lng,omitempty"`
	VehicleNumber   *string  `json:"vehicle_number,omitempty"`
}

// OrderResponse is an order with its recorded proof-of-delivery artifacts
type OrderResponse struct {
	Order
	Receipts []Receipt `json:"receipts"`
}
