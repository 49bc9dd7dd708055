package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens and verifies the database connection. An unreachable
// database is fatal at startup; callers log.Fatal on error.
func Connect(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established")
	return db, nil
}

// Migrate applies the schema. Statements are idempotent.
func Migrate(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			mobile TEXT,
			role TEXT NOT NULL CHECK(role IN ('admin', 'driver', 'customer')),
			fcm_token TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS customers (
			id SERIAL PRIMARY KEY,
			user_id INT REFERENCES users(id),
			company_name TEXT NOT NULL,
			address TEXT,
			mobile TEXT,
			gps_lat DOUBLE PRECISION,
			gps_lng DOUBLE PRECISION,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id SERIAL PRIMARY KEY,
			customer_id INT NOT NULL REFERENCES customers(id),
			driver_id INT REFERENCES users(id),
			liters DOUBLE PRECISION NOT NULL,
			rate DOUBLE PRECISION NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK(status IN ('pending', 'assigned', 'in_transit', 'delivered', 'cancelled')),
			otp TEXT NOT NULL,
			signature TEXT,
			delivery_address TEXT,
			delivery_lat DOUBLE PRECISION,
			delivery_lng DOUBLE PRECISION,
			vehicle_number TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_orders_driver_status ON orders(driver_id, status)`,

		`CREATE TABLE IF NOT EXISTS truck_locations (
			id SERIAL PRIMARY KEY,
			driver_id INT NOT NULL REFERENCES users(id),
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			accuracy DOUBLE PRECISION,
			speed DOUBLE PRECISION,
			heading DOUBLE PRECISION,
			timestamp BIGINT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_truck_locations_driver_ts ON truck_locations(driver_id, timestamp DESC)`,

		`CREATE TABLE IF NOT EXISTS receipts (
			id SERIAL PRIMARY KEY,
			order_id INT NOT NULL REFERENCES orders(id),
			file_url TEXT NOT NULL,
			file_type TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id SERIAL PRIMARY KEY,
			order_id INT NOT NULL REFERENCES orders(id),
			amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			paid DOUBLE PRECISION NOT NULL DEFAULT 0,
			due DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			role TEXT NOT NULL,
			user_id INT REFERENCES users(id),
			type TEXT NOT NULL,
			order_id INT REFERENCES orders(id),
			metadata JSONB NOT NULL DEFAULT '{}',
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Printf("✅ Applied %d migrations", len(migrations))
	return nil
}
