package orders

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"fuelfleet-backend/internal/models"
)

// SQLStore backs the order service with PostgreSQL.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps a database handle.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) OrderByID(ctx context.Context, id int) (*models.Order, error) {
	var order models.Order
	if err := s.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *SQLStore) ActiveDeliveryForDriver(ctx context.Context, driverID, excludeOrderID int) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		SELECT * FROM orders
		WHERE driver_id = $1 AND status = 'in_transit' AND id != $2
		LIMIT 1`, driverID, excludeOrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *SQLStore) ReceiptCount(ctx context.Context, orderID int) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM receipts WHERE order_id = $1`, orderID)
	return count, err
}

func (s *SQLStore) TransactionByOrder(ctx context.Context, orderID int) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.GetContext(ctx, &tx, `SELECT * FROM transactions WHERE order_id = $1`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *SQLStore) CustomerByID(ctx context.Context, id int) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.GetContext(ctx, &customer, `SELECT * FROM customers WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *SQLStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.db.QueryRowxContext(ctx, `
		INSERT INTO orders (customer_id, driver_id, liters, rate, amount, status, otp,
			delivery_address, delivery_lat, delivery_lng, vehicle_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		order.CustomerID, order.DriverID, order.Liters, order.Rate, order.Amount,
		order.Status, order.OTP, order.DeliveryAddress, order.DeliveryLat,
		order.DeliveryLng, order.VehicleNumber, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
}

func (s *SQLStore) SaveOrder(ctx context.Context, order *models.Order) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET driver_id = $1, liters = $2, rate = $3, amount = $4, status = $5,
			signature = $6, delivery_address = $7, delivery_lat = $8,
			delivery_lng = $9, vehicle_number = $10, updated_at = $11
		WHERE id = $12`,
		order.DriverID, order.Liters, order.Rate, order.Amount, order.Status,
		order.Signature, order.DeliveryAddress, order.DeliveryLat,
		order.DeliveryLng, order.VehicleNumber, order.UpdatedAt, order.ID)
	return err
}

func (s *SQLStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == 0 {
		return s.db.QueryRowxContext(ctx, `
			INSERT INTO transactions (order_id, amount, paid, due, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			tx.OrderID, tx.Amount, tx.Paid, tx.Due, tx.CreatedAt, tx.UpdatedAt,
		).Scan(&tx.ID)
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = $1, paid = $2, due = $3, updated_at = $4
		WHERE id = $5`,
		tx.Amount, tx.Paid, tx.Due, tx.UpdatedAt, tx.ID)
	return err
}
