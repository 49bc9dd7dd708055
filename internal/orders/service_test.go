package orders

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelfleet-backend/internal/models"
)

func TestCreateOrder(t *testing.T) {
	svc, store, notifier := newTestMachine(t)

	order, err := svc.Create(context.Background(), models.CreateOrderRequest{
		CustomerID: 1,
		Liters:     500,
		Rate:       92.5,
	})

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 46250.0, order.Amount)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), order.OTP)

	tx, err := store.TransactionByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, order.Amount, tx.Amount)
	assert.Equal(t, order.Amount, tx.Due)
	assert.Zero(t, tx.Paid)

	assert.True(t, notifier.has(models.NotifNewOrder))
	assert.True(t, notifier.has(models.NotifOrderInitiated))
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := newTestMachine(t)

	tests := []struct {
		name string
		req  models.CreateOrderRequest
	}{
		{"zero liters", models.CreateOrderRequest{CustomerID: 1, Liters: 0, Rate: 92.5}},
		{"negative liters", models.CreateOrderRequest{CustomerID: 1, Liters: -10, Rate: 92.5}},
		{"zero rate", models.CreateOrderRequest{CustomerID: 1, Liters: 500, Rate: 0}},
		{"unknown customer", models.CreateOrderRequest{CustomerID: 404, Liters: 500, Rate: 92.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
}

func TestCreateWithImmediateAssignment(t *testing.T) {
	svc, _, notifier := newTestMachine(t)

	order, err := svc.Create(context.Background(), models.CreateOrderRequest{
		CustomerID: 1,
		DriverID:   intPtr(11),
		Liters:     500,
		Rate:       92.5,
	})

	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, order.Status)
	require.NotNil(t, order.DriverID)
	assert.Equal(t, 11, *order.DriverID)
	assert.True(t, notifier.has(models.NotifDriverAssigned))
}

func TestEditReconcilesTransaction(t *testing.T) {
	svc, store, _ := newTestMachine(t)
	order := seedOrder(store, models.StatusAssigned, intPtr(11))
	store.transactions[order.ID] = &models.Transaction{
		ID: 99, OrderID: order.ID, Amount: 46250, Paid: 10000, Due: 36250,
	}

	updated, err := svc.Edit(context.Background(), order.ID, models.EditOrderRequest{
		Liters: floatPtr(600),
	})

	require.NoError(t, err)
	assert.Equal(t, 55500.0, updated.Amount) // 600 * 92.5

	tx, _ := store.TransactionByOrder(context.Background(), order.ID)
	assert.Equal(t, 55500.0, tx.Amount)
	assert.Equal(t, 10000.0, tx.Paid, "payments must be preserved")
	assert.Equal(t, 45500.0, tx.Due)
}

func TestEditRejectsAmountBelowPaid(t *testing.T) {
	svc, store, _ := newTestMachine(t)
	order := seedOrder(store, models.StatusAssigned, intPtr(11))
	store.transactions[order.ID] = &models.Transaction{
		ID: 99, OrderID: order.ID, Amount: 46250, Paid: 40000, Due: 6250,
	}

	// 100 liters * 92.5 = 9250, below the 40000 already paid.
	_, err := svc.Edit(context.Background(), order.ID, models.EditOrderRequest{
		Liters: floatPtr(100),
	})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	got, _ := store.OrderByID(context.Background(), order.ID)
	assert.Equal(t, 46250.0, got.Amount, "rejected edit must not change the order")
	tx, _ := store.TransactionByOrder(context.Background(), order.ID)
	assert.Equal(t, 6250.0, tx.Due)
}

func TestEditOnlyBeforeTransit(t *testing.T) {
	svc, store, _ := newTestMachine(t)

	for _, status := range []models.OrderStatus{models.StatusInTransit, models.StatusDelivered, models.StatusCancelled} {
		order := seedOrder(store, status, intPtr(11))
		_, err := svc.Edit(context.Background(), order.ID, models.EditOrderRequest{Rate: floatPtr(95)})
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict, "status %s", status)
	}
}

func TestCancelDelegatesToStateMachine(t *testing.T) {
	svc, store, _ := newTestMachine(t)
	order := seedOrder(store, models.StatusPending, nil)

	updated, err := svc.Cancel(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
}

func floatPtr(v float64) *float64 { return &v }
