package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fuelfleet-backend/internal/geo"
	"fuelfleet-backend/internal/location"
	"fuelfleet-backend/internal/models"
	"fuelfleet-backend/internal/websocket"
	"fuelfleet-backend/pkg/utils"
)

// UpdateLocation ingests one GPS sample from the authenticated driver over
// HTTP. The WebSocket path is preferred; this is the fallback for devices
// without a live socket.
func UpdateLocation(store *location.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := userClaims(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req models.LocationUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sample, err := store.Record(r.Context(), claims.UserID, req)
		if err != nil {
			if errors.Is(err, location.ErrOutsideServiceArea) {
				utils.Error(w, http.StatusBadRequest, "invalid location - coordinates outside service area")
				return
			}
			utils.Error(w, http.StatusInternalServerError, "failed to record location")
			return
		}

		hub.BroadcastToRole(models.RoleAdmin, map[string]interface{}{
			"type": "location_update",
			"data": sample,
		})

		utils.Success(w, map[string]interface{}{
			"message":  "location recorded",
			"location": sample,
			"time_ago": location.TimeAgo(sample.Timestamp, time.Now().Unix()),
		})
	}
}

// GetDriverLocation returns the latest sample for one driver. Optional
// dest_lat/dest_lng query params add straight-line distance and ETA.
func GetDriverLocation(store *location.Store, minSpeedKmh, defaultSpeedKmh float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, ok := urlParamInt(r, "driverID")
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid driver id")
			return
		}

		sample, err := store.Latest(r.Context(), driverID)
		if err != nil {
			utils.Error(w, http.StatusNotFound, "no location data found for driver")
			return
		}

		resp := models.LocationResponse{
			LocationSample: *sample,
			TimeAgo:        location.TimeAgo(sample.Timestamp, time.Now().Unix()),
		}

		destLat, errLat := strconv.ParseFloat(r.URL.Query().Get("dest_lat"), 64)
		destLng, errLng := strconv.ParseFloat(r.URL.Query().Get("dest_lng"), 64)
		if errLat == nil && errLng == nil {
			km := geo.HaversineKm(sample.Latitude, sample.Longitude, destLat, destLng)
			min := geo.ETAMinutes(km, sample.SpeedKmh, minSpeedKmh, defaultSpeedKmh)
			resp.DistanceKm = &km
			resp.ETAMinutes = &min
		}

		utils.Success(w, resp)
	}
}

// GetActiveDrivers returns the latest position of every driver that
// reported recently, for the fleet map.
func GetActiveDrivers(store *location.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drivers, err := store.ActiveDrivers(r.Context())
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to load active drivers")
			return
		}

		utils.Success(w, map[string]interface{}{
			"drivers": drivers,
			"count":   len(drivers),
		})
	}
}
