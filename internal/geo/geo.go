package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const (
	// EarthRadiusMeters is Earth's mean radius
	EarthRadiusMeters = 6371000.0
	EarthRadiusKm     = 6371.0
)

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// HaversineMeters returns the great-circle distance between two points in
// meters.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	return HaversineKm(lat1, lng1, lat2, lng2) * 1000
}

// PointToPolylineMeters returns the minimum distance in meters from a point
// to any segment of a polyline. The polyline is an ordered sequence of
// [lng, lat] pairs (routing provider convention). Returns +Inf when the
// polyline has fewer than two vertices.
//
// Used to detect when a driver has deviated from the selected route.
func PointToPolylineMeters(lat, lng float64, line [][]float64) float64 {
	if len(line) < 2 {
		return math.Inf(1)
	}

	minDist := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		a, b := line[i], line[i+1]
		d := pointToSegmentMeters(lat, lng, a[1], a[0], b[1], b[0])
		if d < minDist {
			minDist = d
		}
	}
	return minDist
}

// pointToSegmentMeters returns the distance from point P to segment AB in
// meters. The projection parameter is computed in lat/lng degree space
// (planar approximation, fine at route-segment scale) and clamped to
// [0, 1]; the final distance to the closest point is great-circle.
func pointToSegmentMeters(px, py, ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay

	if dx == 0 && dy == 0 {
		return HaversineMeters(px, py, ax, ay)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))

	closestX := ax + t*dx
	closestY := ay + t*dy

	return HaversineMeters(px, py, closestX, closestY)
}

// ETAMinutes estimates travel time for a distance. The driver's live speed
// is used when it clears the noise floor, otherwise the default cruising
// speed.
func ETAMinutes(distanceKm float64, currentSpeedKmh *float64, minSpeedKmh, defaultSpeedKmh float64) int {
	speed := defaultSpeedKmh
	if currentSpeedKmh != nil && *currentSpeedKmh > minSpeedKmh {
		speed = *currentSpeedKmh
	}
	return int(distanceKm / speed * 60)
}
