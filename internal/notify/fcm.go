package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMService handles Firebase Cloud Messaging pushes to driver and
// customer devices.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates an FCM service from a credentials file.
func NewFCMService(credentialsFile string) (*FCMService, error) {
	return newFCM(option.WithCredentialsFile(credentialsFile))
}

// NewFCMServiceFromBase64 creates an FCM service from base64-encoded
// credentials, for cloud deployments where uploading a file is awkward.
func NewFCMServiceFromBase64(credentialsBase64 string) (*FCMService, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}
	return newFCM(option.WithCredentialsJSON(credentialsJSON))
}

func newFCM(opt option.ClientOption) (*FCMService, error) {
	ctx := context.Background()

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// SendOrderNotification pushes a data message about an order event. The
// app renders the user-facing text from the type.
func (s *FCMService) SendOrderNotification(ctx context.Context, token, eventType string, orderID int) error {
	message := &messaging.Message{
		Token: token,
		Data: map[string]string{
			"type":     eventType,
			"order_id": strconv.Itoa(orderID),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	if _, err := s.client.Send(ctx, message); err != nil {
		return fmt.Errorf("error sending FCM message: %w", err)
	}
	return nil
}
