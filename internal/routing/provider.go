package routing

import "context"

// Coord is a geographic coordinate in degrees.
type Coord struct {
	Lat float64
	Lng float64
}

// DistanceResult is a corrected road distance and travel duration.
type DistanceResult struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
}

// Route is one drivable route between two points. Geometry is an ordered
// sequence of [lng, lat] pairs suitable for map display.
type Route struct {
	RouteIndex      int         `json:"route_index"`
	DistanceKm      float64     `json:"distance_km"`
	DurationMinutes int         `json:"duration_minutes"`
	Geometry        [][]float64 `json:"coordinates"`
}

// Provider is the routing collaborator. All calls are bounded by the
// provider's configured timeouts; an error is a normal, expected outcome
// and callers fall back to straight-line estimates.
type Provider interface {
	// RoadDistance returns corrected distance and duration without geometry.
	RoadDistance(ctx context.Context, origin, dest Coord) (DistanceResult, error)

	// RouteGeometry returns the primary route including its polyline.
	RouteGeometry(ctx context.Context, origin, dest Coord) (Route, error)

	// AlternativeRoutes returns up to three route options for the driver
	// to choose from.
	AlternativeRoutes(ctx context.Context, origin, dest Coord) ([]Route, error)
}
