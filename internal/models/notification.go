package models

// NotificationType identifies what happened; rendering/localization is the
// delivery layer's problem, the core only records the type and metadata.
type NotificationType string

const (
	NotifNewOrder          NotificationType = "new_order"
	NotifOrderInitiated    NotificationType = "order_initiated"
	NotifOrderAssigned     NotificationType = "order_assigned"
	NotifDriverAssigned    NotificationType = "driver_assigned"
	NotifOrderInTransit    NotificationType = "order_in_transit"
	NotifDeliveryStarted   NotificationType = "delivery_started"
	NotifOrderDelivered    NotificationType = "order_delivered"
	NotifDeliveryCompleted NotificationType = "delivery_completed"
	NotifOrderCancelled    NotificationType = "order_cancelled"
	NotifOrderUnassigned   NotificationType = "order_unassigned"
)

// Notification is a stored notification row for one role or user
type Notification struct {
	ID        int              `json:"id" db:"id"`
	Role      string           `json:"role" db:"role"`
	UserID    *int             `json:"user_id,omitempty" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	OrderID   *int             `json:"order_id,omitempty" db:"order_id"`
	Metadata  []byte           `json:"-" db:"metadata"` // JSON blob
	Read      bool             `json:"read" db:"read"`
	CreatedAt int64            `json:"created_at" db:"created_at"`
}
