package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeChallengeReceived NotificationType = "challenge_received"
	TypeChallengeAccepted NotificationType = "challenge_accepted"
	TypeChallengeDeclined NotificationType = "challenge_declined"
	TypeMatchCancelled    NotificationType = "match_cancelled"
	TypeProximityVerified NotificationType = "proximity_verified"
	TypeProximityTooFar   NotificationType = "proximity_too_far"
	TypeResultClaimed     NotificationType = "result_claimed"
	TypeResultVerified    NotificationType = "result_verified"
	TypeResultDisputed    NotificationType = "result_disputed"
	TypeFriendRequest     NotificationType = "friend_request"
	TypeFriendAccepted    NotificationType = "friend_accepted"
	TypeMessageReceived   NotificationType = "message_received"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

type Notification struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	UserID    uuid.UUID          `json:"user_id" db:"user_id"`
	Type      NotificationType   `json:"type" db:"type"`
	Title     string             `json:"title" db:"title"`
	Message   string             `json:"message" db:"message"`
	Status    NotificationStatus `json:"status" db:"status"`
	IsRead    bool               `json:"is_read" db:"is_read"`
	Data      map[string]any     `json:"data" db:"data"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type NotificationListResponse struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
}
