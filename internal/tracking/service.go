package tracking

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"fuelfleet-backend/internal/geo"
	"fuelfleet-backend/internal/models"
	"fuelfleet-backend/internal/routing"
)

// Lookup failures surfaced to handlers as 404s.
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrNoDriverAssigned   = errors.New("no driver assigned to this order")
	ErrNotTrackable       = errors.New("order is not in trackable status")
	ErrNoLocation         = errors.New("no location data found for driver")
	ErrNoCustomerLocation = errors.New("customer location not available")
	ErrNoRoutes           = errors.New("could not calculate routes")
)

// Store is the persistence collaborator the tracking service reads from.
type Store interface {
	OrderByID(ctx context.Context, id int) (*models.Order, error)
	CustomerByID(ctx context.Context, id int) (*models.Customer, error)
	UserByID(ctx context.Context, id int) (*models.User, error)
	LatestLocation(ctx context.Context, driverID int) (*models.LocationSample, error)
}

// Service answers tracking queries for active orders: where the driver is,
// how far from the customer, the route polyline, and whether the driver
// has left the selected route.
type Service struct {
	store    Store
	provider routing.Provider
	cache    *RouteCache

	offRouteMeters  float64
	minSpeedKmh     float64
	defaultSpeedKmh float64
}

// NewService wires the tracking service.
func NewService(store Store, provider routing.Provider, cache *RouteCache, offRouteMeters, minSpeedKmh, defaultSpeedKmh float64) *Service {
	return &Service{
		store:           store,
		provider:        provider,
		cache:           cache,
		offRouteMeters:  offRouteMeters,
		minSpeedKmh:     minSpeedKmh,
		defaultSpeedKmh: defaultSpeedKmh,
	}
}

// TrackingResponse is the live tracking view for one order.
type TrackingResponse struct {
	OrderID            int         `json:"order_id"`
	DriverID           int         `json:"driver_id"`
	DriverName         string      `json:"driver_name"`
	DriverMobile       *string     `json:"driver_mobile,omitempty"`
	Latitude           float64     `json:"latitude"`
	Longitude          float64     `json:"longitude"`
	Accuracy           *float64    `json:"accuracy,omitempty"`
	SpeedKmh           *float64    `json:"speed,omitempty"`
	Heading            *float64    `json:"heading,omitempty"`
	Timestamp          int64       `json:"timestamp"`
	CustomerLat        *float64    `json:"customer_lat,omitempty"`
	CustomerLng        *float64    `json:"customer_lng,omitempty"`
	CustomerName       string      `json:"customer_name,omitempty"`
	CustomerAddress    *string     `json:"customer_address,omitempty"`
	DistanceKm         *float64    `json:"distance_km,omitempty"`
	ETAMinutes         *int        `json:"eta_minutes,omitempty"`
	IsRoadDistance     bool        `json:"is_road_distance"`
	RouteGeometry      [][]float64 `json:"route_geometry,omitempty"`
	SelectedRouteIndex int         `json:"selected_route_index"`
	OffRouteMeters     *float64    `json:"off_route_meters,omitempty"`
	IsOffRoute         bool        `json:"is_off_route"`
}

// AlternativeRoutesResponse lists the route options for an order.
type AlternativeRoutesResponse struct {
	OrderID            int             `json:"order_id"`
	Routes             []routing.Route `json:"routes"`
	SelectedRouteIndex int             `json:"selected_route_index"`
}

// TrackOrder returns live tracking data for an order in a trackable
// status. Route geometry is served from the per-order cache while the
// driver has moved less than the staleness threshold; otherwise it is
// refetched and the cache re-keyed to the new driver position. Provider
// failures degrade to straight-line distance and default-speed ETA; the
// query itself only fails when the order, driver or location is missing.
func (s *Service) TrackOrder(ctx context.Context, orderID int) (*TrackingResponse, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	if order.DriverID == nil {
		return nil, ErrNoDriverAssigned
	}
	if order.Status != models.StatusAssigned && order.Status != models.StatusInTransit {
		return nil, ErrNotTrackable
	}

	location, err := s.store.LatestLocation(ctx, *order.DriverID)
	if err != nil {
		return nil, ErrNoLocation
	}

	driver, err := s.store.UserByID(ctx, *order.DriverID)
	if err != nil {
		return nil, ErrNoLocation
	}

	customer, _ := s.store.CustomerByID(ctx, order.CustomerID)

	resp := &TrackingResponse{
		OrderID:            order.ID,
		DriverID:           driver.ID,
		DriverName:         driver.Name,
		DriverMobile:       driver.Mobile,
		Latitude:           location.Latitude,
		Longitude:          location.Longitude,
		Accuracy:           location.Accuracy,
		SpeedKmh:           location.SpeedKmh,
		Heading:            location.Heading,
		Timestamp:          location.Timestamp,
		SelectedRouteIndex: s.cache.SelectedIndex(orderID),
	}

	dest, ok := deliveryCoords(order, customer)
	if customer != nil {
		resp.CustomerName = customer.CompanyName
		if order.DeliveryAddress != nil {
			resp.CustomerAddress = order.DeliveryAddress
		} else {
			resp.CustomerAddress = customer.Address
		}
	}
	if !ok {
		return resp, nil
	}
	resp.CustomerLat = &dest.Lat
	resp.CustomerLng = &dest.Lng

	origin := routing.Coord{Lat: location.Latitude, Lng: location.Longitude}

	geometry, distance, eta := s.routeForOrder(ctx, orderID, origin, dest)
	resp.RouteGeometry = geometry

	if distance != nil {
		resp.DistanceKm = distance
		resp.ETAMinutes = eta
		resp.IsRoadDistance = true
	} else {
		// Provider unusable: straight-line fallback. Never fail the query
		// over an unreachable routing server.
		km := geo.HaversineKm(origin.Lat, origin.Lng, dest.Lat, dest.Lng)
		min := geo.ETAMinutes(km, location.SpeedKmh, s.minSpeedKmh, s.defaultSpeedKmh)
		resp.DistanceKm = &km
		resp.ETAMinutes = &min
		resp.IsRoadDistance = false
	}

	if len(resp.RouteGeometry) >= 2 {
		off := geo.PointToPolylineMeters(origin.Lat, origin.Lng, resp.RouteGeometry)
		if !math.IsInf(off, 1) {
			resp.OffRouteMeters = &off
			resp.IsOffRoute = off > s.offRouteMeters
		}
	}

	return resp, nil
}

// routeForOrder implements the cache policy. Route work for one order is
// serialized; the provider call happens while holding only the per-order
// lock, never the cache's map lock.
func (s *Service) routeForOrder(ctx context.Context, orderID int, origin, dest routing.Coord) (geometry [][]float64, distanceKm *float64, etaMinutes *int) {
	unlock := s.cache.LockOrder(orderID)
	defer unlock()

	cached, ok := s.cache.Get(orderID)
	if ok && s.cache.Fresh(cached, origin.Lat, origin.Lng) {
		log.Printf("order %d: cached route (%d points) still fresh", orderID, len(cached.Geometry))
		km, min := s.distanceOnly(ctx, origin, dest)
		return cached.Geometry, km, min
	}

	route, err := s.provider.RouteGeometry(ctx, origin, dest)
	if err == nil {
		s.cache.Put(orderID, &Entry{
			DriverLat: origin.Lat,
			DriverLng: origin.Lng,
			DestLat:   dest.Lat,
			DestLng:   dest.Lng,
			Geometry:  route.Geometry,
			CachedAt:  time.Now(),
		})
		return route.Geometry, &route.DistanceKm, &route.DurationMinutes
	}

	log.Printf("order %d: route refetch failed: %v", orderID, err)

	// Serve the stale geometry if we have it, else one independent second
	// attempt before giving up on geometry. Distance/ETA still come from
	// the fallback path either way.
	if ok {
		km, min := s.distanceOnly(ctx, origin, dest)
		return cached.Geometry, km, min
	}

	retry, retryErr := s.provider.RouteGeometry(ctx, origin, dest)
	if retryErr != nil {
		km, min := s.distanceOnly(ctx, origin, dest)
		return nil, km, min
	}
	s.cache.Put(orderID, &Entry{
		DriverLat: origin.Lat,
		DriverLng: origin.Lng,
		DestLat:   dest.Lat,
		DestLng:   dest.Lng,
		Geometry:  retry.Geometry,
		CachedAt:  time.Now(),
	})
	return retry.Geometry, &retry.DistanceKm, &retry.DurationMinutes
}

// distanceOnly fetches corrected road distance without geometry; nil on
// provider failure, letting the caller fall back to Haversine.
func (s *Service) distanceOnly(ctx context.Context, origin, dest routing.Coord) (*float64, *int) {
	result, err := s.provider.RoadDistance(ctx, origin, dest)
	if err != nil {
		return nil, nil
	}
	return &result.DistanceKm, &result.DurationMinutes
}

// AlternativeRoutes returns up to three route options from the driver's
// latest position to the delivery point.
func (s *Service) AlternativeRoutes(ctx context.Context, orderID int) (*AlternativeRoutesResponse, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	if order.DriverID == nil {
		return nil, ErrNoDriverAssigned
	}

	location, err := s.store.LatestLocation(ctx, *order.DriverID)
	if err != nil {
		return nil, ErrNoLocation
	}

	dest, ok := s.destination(ctx, order)
	if !ok {
		return nil, ErrNoCustomerLocation
	}

	routes, err := s.provider.AlternativeRoutes(ctx, routing.Coord{Lat: location.Latitude, Lng: location.Longitude}, dest)
	if err != nil || len(routes) == 0 {
		return nil, ErrNoRoutes
	}

	return &AlternativeRoutesResponse{
		OrderID:            orderID,
		Routes:             routes,
		SelectedRouteIndex: s.cache.SelectedIndex(orderID),
	}, nil
}

// SelectRoute records the driver's choice among the alternatives and drops
// the cached geometry so the next tracking query follows the new choice.
func (s *Service) SelectRoute(ctx context.Context, orderID, routeIndex int) error {
	if _, err := s.store.OrderByID(ctx, orderID); err != nil {
		return ErrOrderNotFound
	}

	unlock := s.cache.LockOrder(orderID)
	defer unlock()
	s.cache.Select(orderID, routeIndex)
	log.Printf("order %d: driver selected route index %d", orderID, routeIndex)
	return nil
}

// Recalculate throws away the cached route and computes fresh options from
// the driver's reported position. Called when the driver has gone off
// route.
func (s *Service) Recalculate(ctx context.Context, orderID int, driverLat, driverLng float64) (*AlternativeRoutesResponse, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	dest, ok := s.destination(ctx, order)
	if !ok {
		return nil, ErrNoCustomerLocation
	}

	origin := routing.Coord{Lat: driverLat, Lng: driverLng}

	unlock := s.cache.LockOrder(orderID)
	defer unlock()

	s.cache.Invalidate(orderID)

	routes, err := s.provider.AlternativeRoutes(ctx, origin, dest)
	if err != nil || len(routes) == 0 {
		// Alternatives unavailable; a single primary route is still useful.
		route, gerr := s.provider.RouteGeometry(ctx, origin, dest)
		if gerr != nil {
			return nil, ErrNoRoutes
		}
		routes = []routing.Route{route}
	}

	s.cache.Put(orderID, &Entry{
		DriverLat: origin.Lat,
		DriverLng: origin.Lng,
		DestLat:   dest.Lat,
		DestLng:   dest.Lng,
		Geometry:  routes[0].Geometry,
		CachedAt:  time.Now(),
	})

	log.Printf("order %d: route recalculated from driver position, %d options", orderID, len(routes))

	return &AlternativeRoutesResponse{
		OrderID:            orderID,
		Routes:             routes,
		SelectedRouteIndex: 0,
	}, nil
}

// InvalidateOrder drops all cached route state for an order, including its
// lock entry; the order is terminal and gets no further route work. Wired
// to terminal status transitions.
func (s *Service) InvalidateOrder(orderID int) {
	s.cache.Invalidate(orderID)
	s.cache.ReleaseOrder(orderID)
}

// destination resolves the delivery point from the order, falling back to
// the customer's registered site.
func (s *Service) destination(ctx context.Context, order *models.Order) (routing.Coord, bool) {
	customer, _ := s.store.CustomerByID(ctx, order.CustomerID)
	return deliveryCoords(order, customer)
}

func deliveryCoords(order *models.Order, customer *models.Customer) (routing.Coord, bool) {
	if order.DeliveryLat != nil && order.DeliveryLng != nil {
		return routing.Coord{Lat: *order.DeliveryLat, Lng: *order.DeliveryLng}, true
	}
	if customer != nil && customer.GPSLat != nil && customer.GPSLng != nil {
		return routing.Coord{Lat: *customer.GPSLat, Lng: *customer.GPSLng}, true
	}
	return routing.Coord{}, false
}
