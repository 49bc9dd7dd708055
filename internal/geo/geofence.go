package geo

// Geofence is the service-region bounding box. GPS samples outside it are
// rejected as test/dummy locations rather than persisted.
type Geofence struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Validate reports whether the coordinates fall inside the service region.
func (g Geofence) Validate(lat, lng float64) bool {
	return lat >= g.MinLat && lat <= g.MaxLat && lng >= g.MinLng && lng <= g.MaxLng
}
