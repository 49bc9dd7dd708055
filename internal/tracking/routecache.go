package tracking

import (
	"sync"
	"time"

	"fuelfleet-backend/internal/geo"
)

// Entry is a cached route for one order: the geometry that was fetched and
// the driver position it was fetched from. The driver position is the
// staleness reference point for the next lookup.
type Entry struct {
	DriverLat float64
	DriverLng float64
	DestLat   float64
	DestLng   float64
	Geometry  [][]float64
	CachedAt  time.Time
}

// RouteCache holds per-order route geometry and the companion
// selected-route index. Both are invalidated together when an order
// reaches a terminal status, the driver requests a recalculation, or the
// driver picks a different alternative route.
//
// Reads and writes for different orders never block each other. Writers
// for the same order serialize through LockOrder, which callers hold
// across the fetch-and-swap sequence; the internal mutex only guards the
// maps and is never held while a network call is in flight.
type RouteCache struct {
	mu       sync.RWMutex
	entries  map[int]*Entry
	selected map[int]int

	keyMu sync.Mutex
	keys  map[int]*sync.Mutex

	stalenessMeters float64
}

// NewRouteCache creates a route cache with the given staleness threshold
// in meters of driver displacement.
func NewRouteCache(stalenessMeters float64) *RouteCache {
	return &RouteCache{
		entries:         make(map[int]*Entry),
		selected:        make(map[int]int),
		keys:            make(map[int]*sync.Mutex),
		stalenessMeters: stalenessMeters,
	}
}

// LockOrder serializes route work for one order id. Returns the unlock
// function. Work for other orders is unaffected.
func (c *RouteCache) LockOrder(orderID int) func() {
	c.keyMu.Lock()
	m, ok := c.keys[orderID]
	if !ok {
		m = &sync.Mutex{}
		c.keys[orderID] = m
	}
	c.keyMu.Unlock()

	m.Lock()
	return m.Unlock
}

// Get returns the cached entry for an order, if any.
func (c *RouteCache) Get(orderID int) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[orderID]
	return e, ok
}

// Fresh reports whether the cached entry is still usable for a driver now
// at the given position, i.e. the driver has moved less than the staleness
// threshold since the entry was populated.
func (c *RouteCache) Fresh(e *Entry, driverLat, driverLng float64) bool {
	moved := geo.HaversineMeters(e.DriverLat, e.DriverLng, driverLat, driverLng)
	return moved < c.stalenessMeters
}

// Put swaps in a new entry for an order. The entry's driver position
// becomes the new staleness reference point.
func (c *RouteCache) Put(orderID int, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[orderID] = e
}

// SelectedIndex returns which of the alternative routes the driver chose
// (0 when never set).
func (c *RouteCache) SelectedIndex(orderID int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected[orderID]
}

// Select records the driver's route choice and drops the cached geometry
// so the next tracking query refetches along the chosen route.
func (c *RouteCache) Select(orderID, routeIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected[orderID] = routeIndex
	delete(c.entries, orderID)
}

// Invalidate drops both the geometry entry and the selected-route index
// for an order.
func (c *RouteCache) Invalidate(orderID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, orderID)
	delete(c.selected, orderID)
}

// ReleaseOrder reclaims the per-order lock entry. Only safe once no more
// route work will arrive for the order, i.e. after a terminal status;
// callers serializing live route work (Recalculate) must not release.
func (c *RouteCache) ReleaseOrder(orderID int) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	delete(c.keys, orderID)
}

// Len returns the number of cached entries.
func (c *RouteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
