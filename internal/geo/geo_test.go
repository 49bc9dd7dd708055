package geo

import (
	"math"
	"testing"
)

func TestGeofenceValidate(t *testing.T) {
	fence := Geofence{MinLat: 6.5, MaxLat: 35.5, MinLng: 68.0, MaxLng: 97.5}

	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{"mumbai", 19.0760, 72.8777, true},
		{"delhi", 28.6139, 77.2090, true},
		{"min corner inclusive", 6.5, 68.0, true},
		{"max corner inclusive", 35.5, 97.5, true},
		{"south of box", 6.4999, 72.0, false},
		{"north of box", 35.5001, 72.0, false},
		{"west of box", 19.0, 67.9999, false},
		{"east of box", 19.0, 97.5001, false},
		{"london", 51.5074, -0.1278, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fence.Validate(tt.lat, tt.lng); got != tt.want {
				t.Fatalf("Validate(%v, %v) = %v, want %v", tt.lat, tt.lng, got, tt.want)
			}
		})
	}
}

func TestHaversineKm(t *testing.T) {
	// Mumbai city center to Thane.
	km := HaversineKm(19.0760, 72.8777, 19.2183, 72.9781)
	if math.Abs(km-19.0) > 0.2 {
		t.Fatalf("HaversineKm = %.3f, want ~19.0", km)
	}

	if d := HaversineKm(19.0760, 72.8777, 19.0760, 72.8777); d != 0 {
		t.Fatalf("zero distance = %v, want 0", d)
	}

	// Symmetric.
	fwd := HaversineKm(19.0760, 72.8777, 28.6139, 77.2090)
	rev := HaversineKm(28.6139, 77.2090, 19.0760, 72.8777)
	if math.Abs(fwd-rev) > 1e-9 {
		t.Fatalf("asymmetric: %v vs %v", fwd, rev)
	}
}

func TestHaversineMeters(t *testing.T) {
	// ~111 m per 0.001 degrees of latitude.
	m := HaversineMeters(19.0, 72.9, 19.001, 72.9)
	if math.Abs(m-111.2) > 1.0 {
		t.Fatalf("HaversineMeters = %.2f, want ~111.2", m)
	}
}

func TestETAMinutes(t *testing.T) {
	speed := func(v float64) *float64 { return &v }

	tests := []struct {
		name       string
		distanceKm float64
		speedKmh   *float64
		want       int
	}{
		{"default speed when no sample", 19.02, nil, 28},
		{"default speed when crawling", 19.02, speed(3), 28},
		{"reported speed used", 40, speed(80), 30},
		{"at the noise floor falls back to default", 10, speed(5), 15},
		{"just above the noise floor uses reported", 10, speed(5.5), 109},
		{"zero distance", 0, speed(60), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ETAMinutes(tt.distanceKm, tt.speedKmh, 5, 40)
			if got != tt.want {
				t.Fatalf("ETAMinutes(%v) = %d, want %d", tt.distanceKm, got, tt.want)
			}
		})
	}
}

func TestPointToPolylineMeters(t *testing.T) {
	// Rough south-to-north route through Mumbai, [lng, lat] pairs.
	route := [][]float64{
		{72.8777, 19.0760},
		{72.9781, 19.2183},
	}

	// Point west of the segment; projection lands inside it.
	off := PointToPolylineMeters(19.10, 72.90, route)
	if off < 300 || off > 700 {
		t.Fatalf("off-route distance = %.1f m, want within (300, 700)", off)
	}

	// A route vertex itself is on the route.
	on := PointToPolylineMeters(19.0760, 72.8777, route)
	if on > 1 {
		t.Fatalf("vertex distance = %.2f m, want ~0", on)
	}

	// Beyond the far endpoint the distance clamps to the endpoint.
	past := PointToPolylineMeters(19.30, 73.05, route)
	want := HaversineMeters(19.30, 73.05, 19.2183, 72.9781)
	if math.Abs(past-want) > 1 {
		t.Fatalf("clamped distance = %.1f, want %.1f", past, want)
	}

	// Degenerate polylines are never "on route".
	if d := PointToPolylineMeters(19.0, 72.9, [][]float64{{72.9, 19.0}}); !math.IsInf(d, 1) {
		t.Fatalf("single-vertex polyline = %v, want +Inf", d)
	}
	if d := PointToPolylineMeters(19.0, 72.9, nil); !math.IsInf(d, 1) {
		t.Fatalf("nil polyline = %v, want +Inf", d)
	}
}

func TestPointToPolylineUsesClosestSegment(t *testing.T) {
	// L-shaped route; the point sits near the second leg.
	route := [][]float64{
		{72.90, 19.00},
		{72.90, 19.10},
		{73.00, 19.10},
	}

	d := PointToPolylineMeters(19.095, 72.95, route)
	if d > 600 {
		t.Fatalf("closest-segment distance = %.1f m, want < 600", d)
	}
}
