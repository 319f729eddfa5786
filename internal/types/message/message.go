package message

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SenderID   uuid.UUID `json:"sender_id" db:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id" db:"receiver_id"`
	Content    string    `json:"content" db:"content"`
	IsE2EE     bool      `json:"is_e2ee" db:"is_e2ee"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	IsE2EE     bool   `json:"is_e2ee"`
}
