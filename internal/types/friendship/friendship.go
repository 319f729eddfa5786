package friendship

import (
	"time"

	"github.com/google/uuid"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is undirected once accepted; requester/receiver only record who asked.
type Friendship struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	RequesterID uuid.UUID        `json:"requester_id" db:"requester_id"`
	ReceiverID  uuid.UUID        `json:"receiver_id" db:"receiver_id"`
	Status      FriendshipStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// Other returns the participant that is not userID.
func (f *Friendship) Other(userID uuid.UUID) uuid.UUID {
	if f.RequesterID == userID {
		return f.ReceiverID
	}
	return f.RequesterID
}

func (f *Friendship) Involves(userID uuid.UUID) bool {
	return f.RequesterID == userID || f.ReceiverID == userID
}

type Friend struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ProfilePhoto *string   `json:"profile_photo,omitempty"`
	Elo          int       `json:"elo"`
	PublicKey    *string   `json:"public_key,omitempty"`
	Since        time.Time `json:"since"`
}

type AddFriendRequest struct {
	FriendID string `json:"friend_id"`
}
