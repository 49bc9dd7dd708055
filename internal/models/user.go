package models

// User roles
const (
	RoleAdmin    = "admin"
	RoleDriver   = "driver"
	RoleCustomer = "customer"
)

// User represents an account that can authenticate (admin, driver or customer)
type User struct {
	ID        int     `json:"id" db:"id"`
	Email     string  `json:"email" db:"email"`
	Password  string  `json:"-" db:"password"`
	Name      string  `json:"name" db:"name"`
	Mobile    *string `json:"mobile,omitempty" db:"mobile"`
	Role      string  `json:"role" db:"role"`
	FCMToken  *string `json:"-" db:"fcm_token"`
	CreatedAt int64   `json:"created_at" db:"created_at"`
	UpdatedAt int64   `json:"updated_at" db:"updated_at"`
}

// LoginRequest is the request body for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the authenticated user
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
