package models

// LocationSample is one GPS ping from a driver device.
// Samples are append-only; the timestamp-ascending sequence per driver is
// the driver's trajectory.
type LocationSample struct {
	ID        int      `json:"id" db:"id"`
	DriverID  int      `json:"driver_id" db:"driver_id"`
	Latitude  float64  `json:"latitude" db:"latitude"`
	Longitude float64  `json:"longitude" db:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty" db:"accuracy"`   // GPS accuracy in meters
	SpeedKmh  *float64 `json:"speed,omitempty" db:"speed"`         // Speed in km/h
	Heading   *float64 `json:"heading,omitempty" db:"heading"`     // Heading in degrees (0-360)
	Timestamp int64    `json:"timestamp" db:"timestamp"`           // Unix seconds, server-side
}

// LocationUpdateRequest is the request body for POST /api/location/update
type LocationUpdateRequest struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	SpeedKmh  *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
}

// CurrentOrderInfo summarizes a driver's active order for the fleet feed
type CurrentOrderInfo struct {
	ID              int      `json:"id"`
	CustomerName    string   `json:"customer_name,omitempty"`
	CustomerLat     *float64 `json:"customer_lat,omitempty"`
	CustomerLng     *float64 `json:"customer_lng,omitempty"`
	Liters          float64  `json:"liters"`
	TotalAmount     float64  `json:"total_amount"`
	DeliveryAddress *string  `json:"delivery_address,omitempty"`
	Status          string   `json:"status"`
}

// LocationResponse is a location sample with derived display fields
type LocationResponse struct {
	LocationSample
	DriverName   string            `json:"driver_name"`
	DriverMobile *string           `json:"driver_mobile,omitempty"`
	TimeAgo      string            `json:"time_ago"`
	DistanceKm   *float64          `json:"distance_to_destination,omitempty"`
	ETAMinutes   *int              `json:"eta_minutes,omitempty"`
	CurrentOrder *CurrentOrderInfo `json:"current_order,omitempty"`
}
