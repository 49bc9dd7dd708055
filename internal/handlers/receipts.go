package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"fuelfleet-backend/internal/models"
	"fuelfleet-backend/pkg/utils"
)

// CreateReceipt records a proof-of-delivery artifact against an order. The
// artifact itself lives in external storage; only its URL is recorded here.
func CreateReceipt(db *sqlx.DB) http.HandlerFunc {
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
		if order.Status.Terminal() {
			utils.Error(w, http.StatusConflict, "cannot add receipts to a closed order")
			return
		}

		var req struct {
			FileURL  string  `json:"file_url"`
			FileType *string `json:"file_type,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileURL == "" {
			utils.Error(w, http.StatusBadRequest, "file_url is required")
			return
		}

		receipt := models.Receipt{
			OrderID:   orderID,
			FileURL:   req.FileURL,
			FileType:  req.FileType,
			CreatedAt: time.Now().Unix(),
		}
		err := db.QueryRowxContext(r.Context(), `
			INSERT INTO receipts (order_id, file_url, file_type, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			receipt.OrderID, receipt.FileURL, receipt.FileType, receipt.CreatedAt,
		).Scan(&receipt.ID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to record receipt")
			return
		}

		utils.JSON(w, http.StatusCreated, receipt)
	}
}

// GetReceipts lists the receipts recorded against an order.
func GetReceipts(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := urlParamInt(r, "orderID")
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid order id")
			return
		}

		receipts := []models.Receipt{}
		if err := db.SelectContext(r.Context(), &receipts, `SELECT * FROM receipts WHERE order_id = $1 ORDER BY id`, orderID); err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to load receipts")
			return
		}

		utils.Success(w, map[string]interface{}{
			"receipts": receipts,
			"count":    len(receipts),
		})
	}
}
