package database

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// Seed inserts the bootstrap accounts if the users table is empty. Safe to
// run on every startup.
func Seed(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("🌱 Seeding initial users...")

	now := time.Now().Unix()
	seedUsers := []struct {
		email, password, name, role string
	}{
		{"admin@fuelfleet.local", "admin123", "Fleet Admin", "admin"},
		{"driver@fuelfleet.local", "driver123", "Test Driver", "driver"},
	}

	for _, u := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		_, err = db.Exec(`
			INSERT INTO users (email, password, name, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (email) DO NOTHING`,
			u.email, string(hash), u.name, u.role, now, now)
		if err != nil {
			return err
		}
		log.Printf("   created %s (%s)", u.email, u.role)
	}

	return nil
}
