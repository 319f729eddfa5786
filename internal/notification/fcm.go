package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/types/notification"
)

type FCMService struct {
	client messageSender
}

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NewFCMService initializes FCMService from base64 encoded service account JSON.
// When encodedCreds is empty it falls back to a local service account key file.
func NewFCMService(encodedCreds, localFilePath string) (*FCMService, error) {
	var opt option.ClientOption

	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		logging.Log.Info("FCM Service: initializing from encoded credentials")
	} else {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("local firebase file not found: %s, and no encoded credentials were provided", localFilePath)
		}
		opt = option.WithCredentialsFile(localFilePath)
		logging.Log.Infof("FCM Service: initializing from local file: %s", localFilePath)
	}

	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// SendPush sends one message per token. The batch endpoint is not used.
func (s *FCMService) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	if len(tokens) == 0 {
		return nil
	}

	stringData := make(map[string]string, len(data))
	for k, v := range data {
		stringData[k] = fmt.Sprintf("%v", v)
	}

	successCount := 0
	failureCount := 0

	for _, t := range tokens {
		msg := buildMessage(t, title, body, stringData)
		if msg == nil {
			continue
		}

		if _, err := s.client.Send(ctx, msg); err != nil {
			logging.Log.WithError(err).WithField("platform", t.Platform).Warn("FCM: failed to send to token")
			failureCount++
		} else {
			successCount++
		}
	}

	logging.Log.Debugf("FCM: sent %d messages, %d failed", successCount, failureCount)

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all push notifications failed")
	}
	return nil
}

func buildMessage(t notification.DeviceToken, title, body string, data map[string]string) *messaging.Message {
	msg := &messaging.Message{
		Token: t.Token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	switch t.Platform {
	case "android", "":
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		}
	case "ios":
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		}
	default:
		// Web clients poll the notifications endpoint.
		return nil
	}
	return msg
}
