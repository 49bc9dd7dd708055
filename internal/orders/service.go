package orders

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"fuelfleet-backend/internal/models"
)

// Create places a new order. The delivery OTP is generated here and shared
// with the customer out of band; an admin may assign a driver immediately,
// which runs through the same assignment gate as any later transition.
func (s *Service) Create(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	if req.Liters <= 0 {
		return nil, &ValidationError{Reason: "liters must be positive"}
	}
	if req.Rate <= 0 {
		return nil, &ValidationError{Reason: "rate must be positive"}
	}
	if _, err := s.store.CustomerByID(ctx, req.CustomerID); err != nil {
		return nil, &ValidationError{Reason: "customer not found"}
	}

	now := time.Now().Unix()
	order := &models.Order{
		CustomerID:      req.CustomerID,
		Liters:          round2(req.Liters),
		Rate:            round2(req.Rate),
		Amount:          round2(req.Liters * req.Rate),
		Status:          models.StatusPending,
		OTP:             generateOTP(),
		DeliveryAddress: req.DeliveryAddress,
		DeliveryLat:     req.DeliveryLat,
		DeliveryLng:     req.DeliveryLng,
		VehicleNumber:   req.VehicleNumber,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	tx := &models.Transaction{
		OrderID:   order.ID,
		Amount:    order.Amount,
		Due:       order.Amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	meta := map[string]any{"order_id": order.ID}
	s.notifier.Notify(ctx, models.RoleAdmin, nil, models.NotifNewOrder, order.ID, meta)
	if customer, err := s.store.CustomerByID(ctx, order.CustomerID); err == nil && customer.UserID != nil {
		s.notifier.Notify(ctx, models.RoleCustomer, customer.UserID, models.NotifOrderInitiated, order.ID, meta)
	}

	if req.DriverID != nil {
		return s.RequestTransition(ctx, order.ID, models.UpdateOrderRequest{DriverID: req.DriverID})
	}

	return order, nil
}

// Edit changes order details. Only pending/assigned orders are editable.
// Quantity or rate changes reconcile the transaction: due is recomputed
// against what was already paid, and an edit that would drop the amount
// below the paid amount is rejected.
func (s *Service) Edit(ctx context.Context, orderID int, req models.EditOrderRequest) (*models.Order, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	if order.Status != models.StatusPending && order.Status != models.StatusAssigned {
		return nil, &ConflictError{
			Reason: fmt.Sprintf("cannot edit order with status %s; only pending or assigned orders can be edited", order.Status),
		}
	}

	if req.Liters != nil {
		if *req.Liters <= 0 {
			return nil, &ValidationError{Reason: "liters must be positive"}
		}
		order.Liters = round2(*req.Liters)
	}
	if req.Rate != nil {
		if *req.Rate <= 0 {
			return nil, &ValidationError{Reason: "rate must be positive"}
		}
		order.Rate = round2(*req.Rate)
	}
	if req.DeliveryAddress != nil {
		order.DeliveryAddress = req.DeliveryAddress
	}
	if req.DeliveryLat != nil {
		order.DeliveryLat = req.DeliveryLat
	}
	if req.DeliveryLng != nil {
		order.DeliveryLng = req.DeliveryLng
	}
	if req.VehicleNumber != nil {
		order.VehicleNumber = req.VehicleNumber
	}

	if req.Liters != nil || req.Rate != nil {
		order.Amount = round2(order.Liters * order.Rate)

		tx, err := s.store.TransactionByOrder(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("load transaction: %w", err)
		}
		if tx != nil {
			if tx.Paid > order.Amount {
				return nil, &ConflictError{
					Reason: fmt.Sprintf("cannot reduce order amount below paid amount (paid %.2f, new amount %.2f)", tx.Paid, order.Amount),
				}
			}
			tx.Amount = order.Amount
			tx.Due = round2(order.Amount - tx.Paid)
			tx.UpdatedAt = time.Now().Unix()
			if err := s.store.SaveTransaction(ctx, tx); err != nil {
				return nil, fmt.Errorf("save transaction: %w", err)
			}
		}
	}

	order.UpdatedAt = time.Now().Unix()
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	return order, nil
}

// Cancel requests the cancelled transition, with all its gates.
func (s *Service) Cancel(ctx context.Context, orderID int) (*models.Order, error) {
	status := models.StatusCancelled
	return s.RequestTransition(ctx, orderID, models.UpdateOrderRequest{Status: &status})
}

func generateOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(900000)+100000)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
