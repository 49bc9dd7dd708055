package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"fuelfleet-backend/internal/config"
	"fuelfleet-backend/internal/database"
	"fuelfleet-backend/internal/geo"
	"fuelfleet-backend/internal/handlers"
	"fuelfleet-backend/internal/location"
	"fuelfleet-backend/internal/middleware"
	"fuelfleet-backend/internal/models"
	"fuelfleet-backend/internal/notify"
	"fuelfleet-backend/internal/orders"
	"fuelfleet-backend/internal/routing"
	"fuelfleet-backend/internal/tracking"
	"fuelfleet-backend/internal/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

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
	if err := database.Seed(db); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	// Routing provider: OSRM, optionally fronted by a Redis distance cache.
	var provider routing.Provider = routing.NewOSRMClient(routing.OSRMOptions{
		BaseURL:             cfg.OSRMBaseURL,
		DistanceCorrection:  cfg.DistanceCorrectionFactor,
		DurationCorrection:  cfg.DurationCorrectionFactor,
		DistanceTimeout:     cfg.DistanceTimeout,
		GeometryTimeout:     cfg.GeometryTimeout,
		AlternativesTimeout: cfg.AlternativesTimeout,
	})
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("❌ Invalid REDIS_URL: %v", err)
		}
		provider = routing.NewCachedProvider(provider, redis.NewClient(opts), 5*time.Minute)
		log.Println("✅ Redis distance cache enabled")
	}

	fence := geo.Geofence{
		MinLat: cfg.GeofenceMinLat,
		MaxLat: cfg.GeofenceMaxLat,
		MinLng: cfg.GeofenceMinLng,
		MaxLng: cfg.GeofenceMaxLng,
	}
	locationStore := location.NewStore(db, fence, cfg.ActiveDriverWindow)

	routeCache := tracking.NewRouteCache(cfg.RouteStalenessMeters)
	trackingSvc := tracking.NewService(
		tracking.NewSQLStore(db), provider, routeCache,
		cfg.OffRouteMeters, cfg.MinSpeedKmh, cfg.DefaultSpeedKmh,
	)

	// Push notifications are optional; without credentials the notifier
	// still writes in-app notification rows.
	var fcm *notify.FCMService
	if b64 := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); b64 != "" {
		fcm, err = notify.NewFCMServiceFromBase64(b64)
	} else if file := os.Getenv("FIREBASE_CREDENTIALS_FILE"); file != "" {
		fcm, err = notify.NewFCMService(file)
	}
	if err != nil {
		log.Printf("⚠️  FCM init failed, push notifications disabled: %v", err)
		fcm = nil
	} else if fcm != nil {
		log.Println("✅ FCM push notifications enabled")
	}
	notifier := notify.New(db, fcm)

	orderSvc := orders.NewService(orders.NewSQLStore(db), notifier, trackingSvc.InvalidateOrder)

	hub := websocket.NewHub()
	go hub.Run()

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/auth/login", handlers.Login(db))

	// WebSocket authenticates via query token, outside the Auth middleware.
	r.Get("/ws", websocket.HandleWebSocket(hub, locationStore))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth)

		r.Post("/api/auth/fcm-token", handlers.UpdateFCMToken(db))

		r.With(middleware.RequireRole(models.RoleDriver)).
			Post("/api/location/update", handlers.UpdateLocation(locationStore, hub))
		r.With(middleware.RequireRole(models.RoleAdmin, models.RoleCustomer)).
			Get("/api/location/driver/{driverID}", handlers.GetDriverLocation(locationStore, cfg.MinSpeedKmh, cfg.DefaultSpeedKmh))
		r.With(middleware.RequireRole(models.RoleAdmin)).
			Get("/api/location/active", handlers.GetActiveDrivers(locationStore))

		r.Get("/api/tracking/{orderID}", handlers.GetOrderTracking(trackingSvc))
		r.Get("/api/tracking/{orderID}/routes", handlers.GetAlternativeRoutes(trackingSvc))
		r.With(middleware.RequireRole(models.RoleDriver)).
			Post("/api/tracking/{orderID}/select-route", handlers.SelectRoute(trackingSvc))
		r.With(middleware.RequireRole(models.RoleDriver)).
			Post("/api/tracking/{orderID}/recalculate", handlers.RecalculateRoute(trackingSvc))

		r.Get("/api/orders", handlers.GetOrders(db))
		r.Get("/api/orders/{orderID}", handlers.GetOrder(db))
		r.With(middleware.RequireRole(models.RoleAdmin, models.RoleCustomer)).
			Post("/api/orders", handlers.CreateOrder(orderSvc))
		r.Patch("/api/orders/{orderID}", handlers.UpdateOrder(orderSvc))
		r.With(middleware.RequireRole(models.RoleAdmin)).
			Patch("/api/orders/{orderID}/edit", handlers.EditOrder(orderSvc))
		r.Post("/api/orders/{orderID}/cancel", handlers.CancelOrder(orderSvc))

		r.With(middleware.RequireRole(models.RoleDriver, models.RoleAdmin)).
			Post("/api/orders/{orderID}/receipts", handlers.CreateReceipt(db))
		r.Get("/api/orders/{orderID}/receipts", handlers.GetReceipts(db))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("========================================")
	log.Printf("🚀 FuelFleet backend listening on :%s", port)
	log.Println("========================================")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
