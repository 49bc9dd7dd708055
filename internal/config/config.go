package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the tunable parameters for the tracking core.
// Everything has a working default so the server can start from a bare
// environment; tests construct Config literals directly.
type Config struct {
	// Service region bounding box. GPS samples outside it are rejected.
	GeofenceMinLat float64
	GeofenceMaxLat float64
	GeofenceMinLng float64
	GeofenceMaxLng float64

	// Route cache: driver displacement (meters) that invalidates a cached route.
	RouteStalenessMeters float64

	// Off-route detection threshold (meters).
	OffRouteMeters float64

	// Lookback window that defines an "active" driver.
	ActiveDriverWindow time.Duration

	// Routing provider timeouts.
	DistanceTimeout     time.Duration
	GeometryTimeout     time.Duration
	AlternativesTimeout time.Duration

	// Correction factors applied to provider results.
	DistanceCorrectionFactor float64
	DurationCorrectionFactor float64

	// ETA fallback speeds (km/h).
	DefaultSpeedKmh float64
	MinSpeedKmh     float64

	OSRMBaseURL string
	RedisURL    string
}

// Load reads configuration from the environment, falling back to defaults.
// The geofence defaults cover India (the current service region).
func Load() Config {
	return Config{
		GeofenceMinLat: envFloat("GEOFENCE_MIN_LAT", 6.5),
		GeofenceMaxLat: envFloat("GEOFENCE_MAX_LAT", 35.5),
		GeofenceMinLng: envFloat("GEOFENCE_MIN_LNG", 68.0),
		GeofenceMaxLng: envFloat("GEOFENCE_MAX_LNG", 97.5),

		RouteStalenessMeters: envFloat("ROUTE_CACHE_THRESHOLD_METERS", 100),
		OffRouteMeters:       envFloat("OFF_ROUTE_THRESHOLD_METERS", 50),
		ActiveDriverWindow:   envDuration("ACTIVE_DRIVER_WINDOW", 30*time.Minute),

		DistanceTimeout:     envDuration("OSRM_DISTANCE_TIMEOUT", 5*time.Second),
		GeometryTimeout:     envDuration("OSRM_GEOMETRY_TIMEOUT", 20*time.Second),
		AlternativesTimeout: envDuration("OSRM_ALTERNATIVES_TIMEOUT", 5*time.Second),

		DistanceCorrectionFactor: envFloat("DISTANCE_CORRECTION_FACTOR", 1.10),
		DurationCorrectionFactor: envFloat("DURATION_CORRECTION_FACTOR", 1.25),

		DefaultSpeedKmh: envFloat("DEFAULT_SPEED_KMH", 40),
		MinSpeedKmh:     envFloat("MIN_SPEED_KMH", 5),

		OSRMBaseURL: envString("OSRM_BASE_URL", "https://router.project-osrm.org"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
