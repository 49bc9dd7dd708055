package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"fuelfleet-backend/internal/geo"
	"fuelfleet-backend/internal/models"
)

// ErrOutsideServiceArea is returned when a GPS sample falls outside the
// configured geofence. The sample is not persisted and the caller must
// surface the rejection to the driver device.
var ErrOutsideServiceArea = errors.New("coordinates outside service area")

// Store is the append-only location store and feed. Samples are never
// mutated or deleted; retention is somebody else's policy.
type Store struct {
	db           *sqlx.DB
	fence        geo.Geofence
	activeWindow time.Duration
}

// NewStore creates a location store guarding writes with the given
// geofence and defining "active" by the given lookback window.
func NewStore(db *sqlx.DB, fence geo.Geofence, activeWindow time.Duration) *Store {
	return &Store{db: db, fence: fence, activeWindow: activeWindow}
}

// Geofence exposes the validator for callers that pre-check coordinates.
func (s *Store) Geofence() geo.Geofence {
	return s.fence
}

// Record validates and persists one GPS sample for a driver.
func (s *Store) Record(ctx context.Context, driverID int, req models.LocationUpdateRequest) (*models.LocationSample, error) {
	if !s.fence.Validate(req.Latitude, req.Longitude) {
		return nil, ErrOutsideServiceArea
	}

	sample := models.LocationSample{
		DriverID:  driverID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		SpeedKmh:  req.SpeedKmh,
		Heading:   req.Heading,
		Timestamp: time.Now().Unix(),
	}

	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO truck_locations (driver_id, latitude, longitude, accuracy, speed, heading, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		sample.DriverID, sample.Latitude, sample.Longitude,
		sample.Accuracy, sample.SpeedKmh, sample.Heading, sample.Timestamp,
	).Scan(&sample.ID)
	if err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}

	return &sample, nil
}

// Latest returns the most recent sample for a driver.
func (s *Store) Latest(ctx context.Context, driverID int) (*models.LocationSample, error) {
	var sample models.LocationSample
	err := s.db.GetContext(ctx, &sample, `
		SELECT * FROM truck_locations
		WHERE driver_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`, driverID)
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

// ActiveDrivers returns the latest location per driver for drivers that
// reported within the lookback window, enriched with driver identity and
// the driver's current order.
func (s *Store) ActiveDrivers(ctx context.Context) ([]models.LocationResponse, error) {
	cutoff := time.Now().Add(-s.activeWindow).Unix()

	var samples []models.LocationSample
	err := s.db.SelectContext(ctx, &samples, `
		SELECT tl.* FROM truck_locations tl
		JOIN (
			SELECT driver_id, MAX(timestamp) AS max_ts
			FROM truck_locations
			WHERE timestamp >= $1
			GROUP BY driver_id
		) latest ON latest.driver_id = tl.driver_id AND latest.max_ts = tl.timestamp`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("query active drivers: %w", err)
	}

	now := time.Now().Unix()
	results := make([]models.LocationResponse, 0, len(samples))
	for _, sample := range samples {
		var driver models.User
		if err := s.db.GetContext(ctx, &driver, `SELECT * FROM users WHERE id = $1`, sample.DriverID); err != nil {
			continue
		}

		resp := models.LocationResponse{
			LocationSample: sample,
			DriverName:     driver.Name,
			DriverMobile:   driver.Mobile,
			TimeAgo:        TimeAgo(sample.Timestamp, now),
		}
		resp.CurrentOrder = s.currentOrderInfo(ctx, sample.DriverID)
		results = append(results, resp)
	}

	return results, nil
}

// currentOrderInfo looks up the driver's active order for the fleet map.
func (s *Store) currentOrderInfo(ctx context.Context, driverID int) *models.CurrentOrderInfo {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		SELECT * FROM orders
		WHERE driver_id = $1 AND status IN ('assigned', 'in_transit')
		ORDER BY updated_at DESC
		LIMIT 1`, driverID)
	if err != nil {
		return nil
	}

	info := &models.CurrentOrderInfo{
		ID:              order.ID,
		Liters:          order.Liters,
		TotalAmount:     order.Amount,
		DeliveryAddress: order.DeliveryAddress,
		Status:          string(order.Status),
		CustomerLat:     order.DeliveryLat,
		CustomerLng:     order.DeliveryLng,
	}

	var customer models.Customer
	if err := s.db.GetContext(ctx, &customer, `SELECT * FROM customers WHERE id = $1`, order.CustomerID); err == nil {
		info.CustomerName = customer.CompanyName
		if info.CustomerLat == nil {
			info.CustomerLat = customer.GPSLat
		}
		if info.CustomerLng == nil {
			info.CustomerLng = customer.GPSLng
		}
	}

	return info
}

// TimeAgo renders a unix timestamp as a human-relative bucket.
func TimeAgo(ts, now int64) string {
	seconds := now - ts
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return fmt.Sprintf("%d min ago", seconds/60)
	default:
		return fmt.Sprintf("%d hr ago", seconds/3600)
	}
}
