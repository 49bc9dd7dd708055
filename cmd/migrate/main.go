package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"fuelfleet-backend/internal/database"
)

// Standalone migration runner for deploy pipelines. The server also
// migrates on startup; this exists for running migrations ahead of a
// rollout.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("❌ DATABASE_URL is required")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "--seed" {
		if err := database.Seed(db); err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
	}

	log.Println("✅ Done")
}
