package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fuelfleet-backend/internal/models"
)

// Store is the persistence collaborator for the order lifecycle.
type Store interface {
	OrderByID(ctx context.Context, id int) (*models.Order, error)
	// ActiveDeliveryForDriver returns the driver's in-transit order other
	// than excludeOrderID, or nil when there is none.
	ActiveDeliveryForDriver(ctx context.Context, driverID, excludeOrderID int) (*models.Order, error)
	ReceiptCount(ctx context.Context, orderID int) (int, error)
	// TransactionByOrder returns nil without error when the order has no
	// transaction row.
	TransactionByOrder(ctx context.Context, orderID int) (*models.Transaction, error)
	CustomerByID(ctx context.Context, id int) (*models.Customer, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	SaveOrder(ctx context.Context, order *models.Order) error
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
}

// Notifier is the notification collaborator. Implementations must be
// fire-and-forget: a delivery failure is logged there and never reaches
// the state machine.
type Notifier interface {
	Notify(ctx context.Context, role string, userID *int, typ models.NotificationType, orderID int, metadata map[string]any)
}

// Service owns the order delivery lifecycle. All status changes go through
// RequestTransition; there is no other code path that can set a status.
type Service struct {
	store    Store
	notifier Notifier

	// onTerminal is invoked after an order reaches delivered/cancelled;
	// wired to route-cache invalidation.
	onTerminal func(orderID int)

	// driverMu serializes the active-delivery check and the transition
	// write per driver, so two concurrent starts for the same driver
	// cannot both pass the exclusivity check. Entries are kept for the
	// process lifetime: cardinality is bounded by fleet size, and dropping
	// one while a start is in flight would let two starts race past the
	// check on fresh mutexes.
	driverKeyMu sync.Mutex
	driverMu    map[int]*sync.Mutex
}

// NewService wires the order service. onTerminal may be nil.
func NewService(store Store, notifier Notifier, onTerminal func(orderID int)) *Service {
	return &Service{
		store:      store,
		notifier:   notifier,
		onTerminal: onTerminal,
		driverMu:   make(map[int]*sync.Mutex),
	}
}

// allowed is the transition table. Terminal states have no exits.
// assigned -> assigned covers driver reassignment.
var allowed = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusAssigned, models.StatusCancelled},
	models.StatusAssigned:  {models.StatusAssigned, models.StatusInTransit, models.StatusCancelled},
	models.StatusInTransit: {models.StatusDelivered, models.StatusCancelled},
}

func transitionAllowed(from, to models.OrderStatus) bool {
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// effectiveStatus folds the signature side channel into one explicit
// target: supplying a signature is a request to complete the delivery, no
// matter what the status field says.
func effectiveStatus(order *models.Order, req models.UpdateOrderRequest) (models.OrderStatus, bool) {
	if req.Signature != nil {
		return models.StatusDelivered, true
	}
	if req.Status != nil {
		return *req.Status, true
	}
	if req.DriverID != nil {
		return models.StatusAssigned, true
	}
	return order.Status, false
}

// RequestTransition applies one gated status transition.
//
// Gates:
//   - delivered: caller-supplied OTP must match the order's OTP and at
//     least one proof-of-delivery receipt must be recorded. Both checks run
//     regardless of whether an explicit status or a signature triggered the
//     transition.
//   - assigned / in_transit: the driver must not hold another in-transit
//     order (single active delivery per driver).
//   - cancelled: rejected while the order has recorded payments.
//
// Successful transitions notify the affected parties best-effort and
// invalidate cached route state on terminal statuses.
func (s *Service) RequestTransition(ctx context.Context, orderID int, req models.UpdateOrderRequest) (*models.Order, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	target, changed := effectiveStatus(order, req)
	if !changed {
		return order, nil
	}

	if !target.Valid() {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown status %q", target)}
	}
	if order.Status.Terminal() {
		return nil, &ConflictError{Reason: fmt.Sprintf("order is already %s", order.Status)}
	}
	if !transitionAllowed(order.Status, target) {
		return nil, &ConflictError{Reason: fmt.Sprintf("cannot transition from %s to %s", order.Status, target)}
	}

	driverID := order.DriverID
	if req.DriverID != nil {
		driverID = req.DriverID
	}

	switch target {
	case models.StatusAssigned, models.StatusInTransit:
		if driverID == nil {
			return nil, &ValidationError{Reason: "a driver is required for this transition"}
		}

	case models.StatusDelivered:
		if req.OTPInput == nil || *req.OTPInput == "" {
			return nil, &ValidationError{Reason: "OTP is required to complete delivery"}
		}
		if *req.OTPInput != order.OTP {
			return nil, &ValidationError{Reason: "invalid OTP, please verify with customer"}
		}
		count, err := s.store.ReceiptCount(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("count receipts: %w", err)
		}
		if count == 0 {
			return nil, &ValidationError{Reason: "cannot mark as delivered: sale receipt is required"}
		}

	case models.StatusCancelled:
		tx, err := s.store.TransactionByOrder(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("load transaction: %w", err)
		}
		if tx != nil && tx.Paid > 0 {
			return nil, &ConflictError{
				Reason: fmt.Sprintf("cannot cancel order with payments (paid %.2f); contact admin for a refund", tx.Paid),
			}
		}
	}

	commit := func() error {
		oldStatus := order.Status
		order.Status = target
		order.DriverID = driverID
		if req.Signature != nil {
			order.Signature = req.Signature
		}
		order.UpdatedAt = time.Now().Unix()

		if err := s.store.SaveOrder(ctx, order); err != nil {
			order.Status = oldStatus
			return fmt.Errorf("save order: %w", err)
		}

		if target.Terminal() && s.onTerminal != nil {
			s.onTerminal(order.ID)
		}
		s.notifyTransition(ctx, order, oldStatus)
		return nil
	}

	// Starting (or staying on) a delivery needs the exclusivity check and
	// the write to be atomic per driver.
	if target == models.StatusAssigned || target == models.StatusInTransit {
		unlock := s.lockDriver(*driverID)
		defer unlock()

		active, err := s.store.ActiveDeliveryForDriver(ctx, *driverID, orderID)
		if err != nil {
			return nil, fmt.Errorf("check active delivery: %w", err)
		}
		if active != nil {
			return nil, &ConflictError{
				Reason: fmt.Sprintf("driver already has an active delivery (order #%d); complete it before starting a new one", active.ID),
			}
		}

		if err := commit(); err != nil {
			return nil, err
		}
		return order, nil
	}

	if err := commit(); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) lockDriver(driverID int) func() {
	s.driverKeyMu.Lock()
	m, ok := s.driverMu[driverID]
	if !ok {
		m = &sync.Mutex{}
		s.driverMu[driverID] = m
	}
	s.driverKeyMu.Unlock()

	m.Lock()
	return m.Unlock
}

// notifyTransition fans out status-change notifications. The notifier
// swallows delivery failures; nothing here can undo the transition.
func (s *Service) notifyTransition(ctx context.Context, order *models.Order, oldStatus models.OrderStatus) {
	if order.Status == oldStatus && order.Status != models.StatusAssigned {
		return
	}

	meta := map[string]any{"order_id": order.ID}

	var customerUserID *int
	if customer, err := s.store.CustomerByID(ctx, order.CustomerID); err == nil {
		customerUserID = customer.UserID
	}

	switch order.Status {
	case models.StatusAssigned:
		if customerUserID != nil {
			s.notifier.Notify(ctx, models.RoleCustomer, customerUserID, models.NotifOrderAssigned, order.ID, meta)
		}
		if order.DriverID != nil {
			s.notifier.Notify(ctx, models.RoleDriver, order.DriverID, models.NotifDriverAssigned, order.ID, meta)
		}

	case models.StatusInTransit:
		if customerUserID != nil {
			s.notifier.Notify(ctx, models.RoleCustomer, customerUserID, models.NotifOrderInTransit, order.ID, meta)
		}
		s.notifier.Notify(ctx, models.RoleAdmin, nil, models.NotifDeliveryStarted, order.ID, meta)

	case models.StatusDelivered:
		if customerUserID != nil {
			s.notifier.Notify(ctx, models.RoleCustomer, customerUserID, models.NotifOrderDelivered, order.ID, meta)
		}
		s.notifier.Notify(ctx, models.RoleAdmin, nil, models.NotifDeliveryCompleted, order.ID, meta)

	case models.StatusCancelled:
		if customerUserID != nil {
			s.notifier.Notify(ctx, models.RoleCustomer, customerUserID, models.NotifOrderCancelled, order.ID, meta)
		}
		if order.DriverID != nil {
			s.notifier.Notify(ctx, models.RoleDriver, order.DriverID, models.NotifOrderUnassigned, order.ID, meta)
		}
	}
}
