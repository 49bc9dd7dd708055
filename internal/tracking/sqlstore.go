package tracking

import (
	"context"

	"github.com/jmoiron/sqlx"

	"fuelfleet-backend/internal/models"
)

// SQLStore backs the tracking service with PostgreSQL.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps a database handle.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) OrderByID(ctx context.Context, id int) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *SQLStore) CustomerByID(ctx context.Context, id int) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, `SELECT * FROM customers WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *SQLStore) UserByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) LatestLocation(ctx context.Context, driverID int) (*models.LocationSample, error) {
	var sample models.LocationSample
	err := s.db.GetContext(ctx, &sample, `
		SELECT * FROM truck_locations
		WHERE driver_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`, driverID)
	if err != nil {
		return nil, err
	}
	return &sample, nil
}
