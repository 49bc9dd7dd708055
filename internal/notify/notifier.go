package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"fuelfleet-backend/internal/models"
)

// Notifier records notifications for roles/users and optionally pushes
// them to driver devices over FCM. Every failure is logged and swallowed:
// a notification must never block or roll back the transition that
// triggered it.
type Notifier struct {
	db  *sqlx.DB
	fcm *FCMService // nil when push is not configured
}

// New creates a notifier. fcm may be nil.
func New(db *sqlx.DB, fcm *FCMService) *Notifier {
	return &Notifier{db: db, fcm: fcm}
}

// Notify stores one notification addressed to a specific user (userID set)
// or to every user of a role (userID nil). Rendering and localization are
// the delivery layer's job; only the type and metadata are recorded.
func (n *Notifier) Notify(ctx context.Context, role string, userID *int, typ models.NotificationType, orderID int, metadata map[string]any) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		raw = []byte("{}")
	}

	_, err = n.db.ExecContext(ctx, `
		INSERT INTO notifications (role, user_id, type, order_id, metadata, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		role, userID, typ, orderID, raw, time.Now().Unix())
	if err != nil {
		log.Printf("notification insert failed (type=%s order=%d): %v", typ, orderID, err)
		return
	}

	if n.fcm != nil && userID != nil {
		n.push(ctx, *userID, typ, orderID)
	}
}

// push sends a best-effort FCM message to the user's registered device.
func (n *Notifier) push(ctx context.Context, userID int, typ models.NotificationType, orderID int) {
	var token *string
	err := n.db.GetContext(ctx, &token, `SELECT fcm_token FROM users WHERE id = $1`, userID)
	if err != nil || token == nil || *token == "" {
		return
	}

	if err := n.fcm.SendOrderNotification(ctx, *token, string(typ), orderID); err != nil {
		log.Printf("fcm push failed (user=%d type=%s): %v", userID, typ, err)
	}
}
