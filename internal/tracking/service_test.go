package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fuelfleet-backend/internal/models"
	"fuelfleet-backend/internal/routing"
)

type fakeStore struct {
	order    *models.Order
	customer *models.Customer
	driver   *models.User
	location *models.LocationSample
}

func (f *fakeStore) OrderByID(ctx context.Context, id int) (*models.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, errors.New("not found")
	}
	return f.order, nil
}

func (f *fakeStore) CustomerByID(ctx context.Context, id int) (*models.Customer, error) {
	if f.customer == nil {
		return nil, errors.New("not found")
	}
	return f.customer, nil
}

func (f *fakeStore) UserByID(ctx context.Context, id int) (*models.User, error) {
	if f.driver == nil {
		return nil, errors.New("not found")
	}
	return f.driver, nil
}

func (f *fakeStore) LatestLocation(ctx context.Context, driverID int) (*models.LocationSample, error) {
	if f.location == nil {
		return nil, errors.New("no rows")
	}
	return f.location, nil
}

type stubProvider struct {
	mu sync.Mutex

	geometryCalls     int
	distanceCalls     int
	alternativesCalls int

	failGeometry bool
	failDistance bool

	route  routing.Route
	routes []routing.Route
}

func (p *stubProvider) RoadDistance(ctx context.Context, origin, dest routing.Coord) (routing.DistanceResult, error) {
	p.mu.Lock()
	p.distanceCalls++
	fail := p.failDistance
	p.mu.Unlock()
	if fail {
		return routing.DistanceResult{}, errors.New("osrm down")
	}
	return routing.DistanceResult{DistanceKm: p.route.DistanceKm, DurationMinutes: p.route.DurationMinutes}, nil
}

func (p *stubProvider) RouteGeometry(ctx context.Context, origin, dest routing.Coord) (routing.Route, error) {
	p.mu.Lock()
	p.geometryCalls++
	fail := p.failGeometry
	p.mu.Unlock()
	if fail {
		return routing.Route{}, errors.New("osrm down")
	}
	return p.route, nil
}

func (p *stubProvider) AlternativeRoutes(ctx context.Context, origin, dest routing.Coord) ([]routing.Route, error) {
	p.mu.Lock()
	p.alternativesCalls++
	p.mu.Unlock()
	if len(p.routes) == 0 {
		return nil, errors.New("no alternatives")
	}
	return p.routes, nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testFixture(status models.OrderStatus) (*fakeStore, *stubProvider) {
	store := &fakeStore{
		order: &models.Order{
			ID:          7,
			CustomerID:  3,
			DriverID:    intPtr(11),
			Status:      status,
			DeliveryLat: floatPtr(19.2183),
			DeliveryLng: floatPtr(72.9781),
		},
		customer: &models.Customer{ID: 3, CompanyName: "Apex Logistics"},
		driver:   &models.User{ID: 11, Name: "Ravi", Role: models.RoleDriver},
		location: &models.LocationSample{
			DriverID:  11,
			Latitude:  19.0760,
			Longitude: 72.8777,
			Timestamp: 1700000000,
		},
	}
	provider := &stubProvider{
		route: routing.Route{
			DistanceKm:      21.5,
			DurationMinutes: 34,
			Geometry:        [][]float64{{72.8777, 19.0760}, {72.9781, 19.2183}},
		},
	}
	return store, provider
}

func newTestService(store *fakeStore, provider *stubProvider) *Service {
	return NewService(store, provider, NewRouteCache(100), 50, 5, 40)
}

func TestTrackOrderRoadRoute(t *testing.T) {
	store, provider := testFixture(models.StatusInTransit)
	svc := newTestService(store, provider)

	resp, err := svc.TrackOrder(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.IsRoadDistance {
		t.Fatal("expected road distance")
	}
	if resp.DistanceKm == nil || *resp.DistanceKm != 21.5 {
		t.Fatalf("distance = %v, want 21.5", resp.DistanceKm)
	}
	if resp.ETAMinutes == nil || *resp.ETAMinutes != 34 {
		t.Fatalf("eta = %v, want 34", resp.ETAMinutes)
	}
	if len(resp.RouteGeometry) != 2 {
		t.Fatalf("geometry points = %d, want 2", len(resp.RouteGeometry))
	}
	if resp.DriverName != "Ravi" {
		t.Fatalf("driver name = %q", resp.DriverName)
	}
	if provider.geometryCalls != 1 {
		t.Fatalf("geometry calls = %d, want 1", provider.geometryCalls)
	}
}

func TestTrackOrderServesCachedRouteWhileFresh(t *testing.T) {
	store, provider := testFixture(models.StatusInTransit)
	svc := newTestService(store, provider)

	if _, err := svc.TrackOrder(context.Background(), 7); err != nil {
		t.Fatalf("first query: %v", err)
	}

	// Driver moved ~55 m: under the staleness threshold.
	store.location.Latitude = 19.0765

	if _, err := svc.TrackOrder(context.Background(), 7); err != nil {
		t.Fatalf("second query: %v", err)
	}

	if provider.geometryCalls != 1 {
		t.Fatalf("geometry calls = %d, want 1 (cache hit expected)", provider.geometryCalls)
	}
	if provider.distanceCalls != 1 {
		t.Fatalf("distance calls = %d, want 1 (distance still refreshed)", provider.distanceCalls)
	}
}

func TestTrackOrderRefetchesWhenDriverMoved(t *testing.T) {
	store, provider := testFixture(models.StatusInTransit)
	svc := newTestService(store, provider)

	if _, err := svc.TrackOrder(context.Background(), 7); err != nil {
		t.Fatalf("first query: %v", err)
	}

	// ~555 m: past the threshold.
	store.location.Latitude = 19.0810

	if _, err := svc.TrackOrder(context.Background(), 7); err != nil {
		t.Fatalf("second query: %v", err)
	}
	if provider.geometryCalls != 2 {
		t.Fatalf("geometry calls = %d, want 2", provider.geometryCalls)
	}

	// The refetch re-keyed the reference point; a small further move stays
	// cached.
	store.location.Latitude = 19.0812
	if _, err := svc.TrackOrder(context.Background(), 7); err != nil {
		t.Fatalf("third query: %v", err)
	}
	if provider.geometryCalls != 2 {
		t.Fatalf("geometry calls = %d, want 2 after re-key", provider.geometryCalls)
	}
}

func TestTrackOrderStaleServeOnProviderFailure(t *testing.T) {
	store, provider := testFixture(models.StatusInTransit)
	svc := newTestService(store, provider)

	if _, err := svc.TrackOrder(context.Background(), 7); err != nil {
		t.Fatalf("first query: %v", err)
	}

	// Provider goes down and the driver moves past the threshold.
	provider.failGeometry = true
	provider.failDistance = true
	store.location.Latitude = 19.0810

	resp, err := svc.TrackOrder(context.Background(), 7)
	if err != nil {
		t.Fatalf("query must not fail on provider outage: %v", err)
	}

	if len(resp.RouteGeometry) != 2 {
		t.Fatal("stale geometry should still be served")
	}
	if resp.IsRoadDistance {
		t.Fatal("distance should have degraded to straight-line")
	}
	if resp.DistanceKm == nil || resp.ETAMinutes == nil {
		t.Fatal("fallback distance and ETA must be populated")
	}
}

func TestTrackOrderHaversineFallbackWithoutCache(t *testing.T) {
	store, provider := testFixture(models.StatusInTransit)
	provider.failGeometry = true
	provider.failDistance = true
	svc := newTestService(store, provider)

	resp, err := svc.TrackOrder(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.IsRoadDistance {
		t.Fatal("expected straight-line fallback")
	}
	if resp.DistanceKm == nil || *resp.DistanceKm < 18 || *resp.DistanceKm > 20 {
		t.Fatalf("fallback distance = %v, want ~19 km", resp.DistanceKm)
	}
	// Cold cache allows one independent retry before giving up on geometry.
	if provider.geometryCalls != 2 {
		t.Fatalf("geometry calls = %d, want 2", provider.geometryCalls)
	}
}

func TestTrackOrderStatusGates(t *testing.T) {
	tests := []struct {
		status  models.OrderStatus
		wantErr error
	}{
		{models.StatusPending, ErrNotTrackable},
		{models.StatusDelivered, ErrNotTrackable},
		{models.StatusCancelled, ErrNotTrackable},
	}

	for _, tt := range tests {
		store, provider := testFixture(tt.status)
		svc := newTestService(store, provider)
		if _, err := svc.TrackOrder(context.Background(), 7); !errors.Is(err, tt.wantErr) {
			t.Fatalf("status %s: err = %v, want %v", tt.status, err, tt.wantErr)
		}
	}
}

func TestTrackOrderMissingPieces(t *testing.T) {
	store, provider := testFixture(models.StatusInTransit)
	svc := newTestService(store, provider)

	if _, err := svc.TrackOrder(context.Background(), 99); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}

	store.order.DriverID = nil
	if _, err := svc.TrackOrder(context.Background(), 7); !errors.Is(err, ErrNoDriverAssigned) {
		t.Fatalf("err = %v, want ErrNoDriverAssigned", err)
	}

	store.order.DriverID = intPtr(11)
	store.location = nil
	if _, err := svc.TrackOrder(context.Background(), 7); !errors.Is(err, ErrNoLocation) {
		t.Fatalf("err = %v, want ErrNoLocation", err)
	}
}

func TestTrackOrderOffRouteDetection(t *testing.T) {
	store, provider := testFixture(models.StatusInTransit)
	svc := newTestService(store, provider)

	if _, err := svc.TrackOrder(context.Background(), 7); err != nil {
		t.Fatalf("first query: %v", err)
	}

	// Provider outage keeps the original geometry in play; the driver is now
	// ~470 m west of that line.
	provider.failGeometry = true
	provider.failDistance = true
	store.location.Latitude = 19.10
	store.location.Longitude = 72.90

	resp, err := svc.TrackOrder(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.OffRouteMeters == nil {
		t.Fatal("off-route distance must be populated when geometry exists")
	}
	if !resp.IsOffRoute {
		t.Fatalf("driver %0.f m off the line should be flagged (threshold 50 m)", *resp.OffRouteMeters)
	}
}

func TestInvalidateOrderDropsAllState(t *testing.T) {
	store, provider := testFixture(models.StatusInTransit)
	cache := NewRouteCache(100)
	svc := NewService(store, provider, cache, 50, 5, 40)

	if _, err := svc.TrackOrder(context.Background(), 7); err != nil {
		t.Fatalf("first query: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("cached entries = %d, want 1", cache.Len())
	}

	// Terminal transition hook: geometry, selection and the per-order lock
	// entry all go.
	svc.InvalidateOrder(7)

	if cache.Len() != 0 {
		t.Fatalf("cached entries = %d, want 0", cache.Len())
	}
	if got := cache.SelectedIndex(7); got != 0 {
		t.Fatalf("selected index = %d, want 0", got)
	}
	if len(cache.keys) != 0 {
		t.Fatalf("lock entries = %d, want 0", len(cache.keys))
	}
}

func TestSelectRouteAndRecalculate(t *testing.T) {
	store, provider := testFixture(models.StatusInTransit)
	provider.routes = []routing.Route{
		{RouteIndex: 0, DistanceKm: 21.5, DurationMinutes: 34, Geometry: provider.route.Geometry},
		{RouteIndex: 1, DistanceKm: 23.0, DurationMinutes: 31, Geometry: provider.route.Geometry},
	}
	svc := newTestService(store, provider)

	if err := svc.SelectRoute(context.Background(), 7, 1); err != nil {
		t.Fatalf("select: %v", err)
	}

	alts, err := svc.AlternativeRoutes(context.Background(), 7)
	if err != nil {
		t.Fatalf("alternatives: %v", err)
	}
	if len(alts.Routes) != 2 {
		t.Fatalf("routes = %d, want 2", len(alts.Routes))
	}
	if alts.SelectedRouteIndex != 1 {
		t.Fatalf("selected index = %d, want 1", alts.SelectedRouteIndex)
	}

	recalc, err := svc.Recalculate(context.Background(), 7, 19.10, 72.90)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if recalc.SelectedRouteIndex != 0 {
		t.Fatalf("recalculation must reset selection, got %d", recalc.SelectedRouteIndex)
	}
}
