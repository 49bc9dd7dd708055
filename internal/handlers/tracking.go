package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"fuelfleet-backend/internal/tracking"
	"fuelfleet-backend/pkg/utils"
)

// GetOrderTracking returns live tracking data for an active order.
func GetOrderTracking(svc *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := urlParamInt(r, "orderID")
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		resp, err := svc.TrackOrder(r.Context(), orderID)
		if err != nil {
			respondTrackingError(w, err)
			return
		}

		utils.Success(w, resp)
	}
}

// GetAlternativeRoutes lists up to three route options for an order.
func GetAlternativeRoutes(svc *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := urlParamInt(r, "orderID")
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		resp, err := svc.AlternativeRoutes(r.Context(), orderID)
		if err != nil {
			respondTrackingError(w, err)
			return
		}

		utils.Success(w, resp)
	}
}

// SelectRoute records the driver's route choice for an order.
func SelectRoute(svc *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := urlParamInt(r, "orderID")
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req struct {
			RouteIndex *int `json:"route_index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RouteIndex == nil || *req.RouteIndex < 0 {
			utils.Error(w, http.StatusBadRequest, "route_index is required")
			return
		}

		if err := svc.SelectRoute(r.Context(), orderID, *req.RouteIndex); err != nil {
			respondTrackingError(w, err)
			return
		}

		utils.Success(w, map[string]interface{}{
			"message":     "route selected",
			"order_id":    orderID,
			"route_index": *req.RouteIndex,
		})
	}
}

// RecalculateRoute discards the cached route and computes fresh options
// from the driver's reported position.
func RecalculateRoute(svc *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := urlParamInt(r, "orderID")
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
			utils.Error(w, http.StatusBadRequest, "latitude and longitude are required")
			return
		}

		resp, err := svc.Recalculate(r.Context(), orderID, *req.Latitude, *req.Longitude)
		if err != nil {
			respondTrackingError(w, err)
			return
		}

		utils.Success(w, resp)
	}
}

func respondTrackingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracking.ErrOrderNotFound),
		errors.Is(err, tracking.ErrNoDriverAssigned),
		errors.Is(err, tracking.ErrNoLocation),
		errors.Is(err, tracking.ErrNoCustomerLocation):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracking.ErrNotTrackable):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, tracking.ErrNoRoutes):
		utils.Error(w, http.StatusBadGateway, err.Error())
	default:
		utils.Error(w, http.StatusInternalServerError, "tracking query failed")
	}
}
