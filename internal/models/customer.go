package models

// Customer represents a fuel customer (usually a company with a fixed site)
type Customer struct {
	ID          int      `json:"id" db:"id"`
	UserID      *int     `json:"user_id,omitempty" db:"user_id"`
	CompanyName string   `json:"company_name" db:"company_name"`
	Address     *string  `json:"address,omitempty" db:"address"`
	Mobile      *string  `json:"mobile,omitempty" db:"mobile"`
	GPSLat      *float64 `json:"gps_lat,omitempty" db:"gps_lat"`
	GPSLng      *float64 `json:"gps_lng,omitempty" db:"gps_lng"`
	CreatedAt   int64    `json:"created_at" db:"created_at"`
}
