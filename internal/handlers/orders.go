package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"fuelfleet-backend/internal/models"
	"fuelfleet-backend/internal/orders"
	"fuelfleet-backend/pkg/utils"
)

// CreateOrder places a new fuel order.
func CreateOrder(svc *orders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}

		order, err := svc.Create(r.Context(), req)
		if err != nil {
			respondOrderError(w, err)
			return
		}

		utils.JSON(w, http.StatusCreated, order)
	}
}

// UpdateOrder requests a status transition (or driver assignment, or a
// signature-triggered delivery completion) for an order.
func UpdateOrder(svc *orders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := urlParamInt(r, "orderID")
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req models.UpdateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}

		order, err := svc.RequestTransition(r.Context(), orderID, req)
		if err != nil {
			respondOrderError(w, err)
			return
		}

		utils.Success(w, order)
	}
}

// EditOrder changes order details on a pending or assigned order.
func EditOrder(svc *orders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := urlParamInt(r, "orderID")
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req models.EditOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}

		order, err := svc.Edit(r.Context(), orderID, req)
		if err != nil {
			respondOrderError(w, err)
			return
		}

		utils.Success(w, order)
	}
}

// CancelOrder requests the cancelled transition.
func CancelOrder(svc *orders.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := urlParamInt(r, "orderID")
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		order, err := svc.Cancel(r.Context(), orderID)
		if err != nil {
			respondOrderError(w, err)
			return
		}

		utils.Success(w, order)
	}
}

// GetOrder returns one order with its recorded receipts.
func GetOrder(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := urlParamInt(r, "orderID")
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var order models.Order
		if err := db.GetContext(r.Context(), &order, `SELECT * FROM orders WHERE id = $1`, orderID); err != nil {
			utils.Error(w, http.StatusNotFound, "order not found")
			return
		}

		receipts := []models.Receipt{}
		db.SelectContext(r.Context(), &receipts, `SELECT * FROM receipts WHERE order_id = $1 ORDER BY id`, orderID)

		utils.Success(w, models.OrderResponse{Order: order, Receipts: receipts})
	}
}

// GetOrders lists orders, newest first, optionally filtered by status or
// driver.
func GetOrders(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		if status != "" && !models.OrderStatus(status).Valid() {
			utils.Error(w, http.StatusBadRequest, "unknown status filter")
			return
		}

		var driverID *int
		if raw := r.URL.Query().Get("driver_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil || id <= 0 {
				utils.Error(w, http.StatusBadRequest, "invalid driver_id filter")
				return
			}
			driverID = &id
		}

		query, args := ordersQuery(status, driverID)

		orderList := []models.Order{}
		if err := db.SelectContext(r.Context(), &orderList, query, args...); err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to load orders")
			return
		}

		utils.Success(w, map[string]interface{}{
			"orders": orderList,
			"count":  len(orderList),
		})
	}
}

// ordersQuery builds the filtered listing query. status is assumed
// validated; driverID nil means no driver filter.
func ordersQuery(status string, driverID *int) (string, []interface{}) {
	query := `SELECT * FROM orders`
	args := []interface{}{}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(` WHERE status = $%d`, len(args))
	}
	if driverID != nil {
		args = append(args, *driverID)
		if len(args) == 1 {
			query += fmt.Sprintf(` WHERE driver_id = $%d`, len(args))
		} else {
			query += fmt.Sprintf(` AND driver_id = $%d`, len(args))
		}
	}

	return query + ` ORDER BY created_at DESC`, args
}

// respondOrderError maps the order service error taxonomy onto HTTP.
func respondOrderError(w http.ResponseWriter, err error) {
	var validation *orders.ValidationError
	var conflict *orders.ConflictError
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		utils.Error(w, http.StatusNotFound, "order not found")
	case errors.As(err, &validation):
		utils.Error(w, http.StatusBadRequest, validation.Reason)
	case errors.As(err, &conflict):
		utils.Error(w, http.StatusConflict, conflict.Reason)
	default:
		utils.Error(w, http.StatusInternalServerError, "order operation failed")
	}
}
