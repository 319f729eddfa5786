package match

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	// StatusPending is a direct challenge waiting for the named opponent.
	StatusPending Status = "pending"
	// StatusActive is an open broadcast any other player may take.
	StatusActive   Status = "active"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

type Kind string

const (
	KindChallenge Kind = "challenge"
	KindBroadcast Kind = "broadcast"
)

// Role is the side a participant occupies in a match.
type Role string

const (
	RoleNone     Role = ""
	RoleCreator  Role = "creator"
	RoleAcceptor Role = "acceptor"
)

type ResultType string

const (
	ResultWin  ResultType = "win"
	ResultLoss ResultType = "loss"
)

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type MatchRequest struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	CreatorID         uuid.UUID   `json:"user_id" db:"user_id"`
	OpponentID        *uuid.UUID  `json:"opponent_id,omitempty" db:"opponent_id"`
	Sport             string      `json:"sport" db:"sport"`
	Status            Status      `json:"status" db:"status"`
	AcceptedBy        *uuid.UUID  `json:"accepted_by,omitempty" db:"accepted_by"`
	CreatorLocation   *Coordinate `json:"creator_location,omitempty"`
	AcceptorLocation  *Coordinate `json:"acceptor_location,omitempty"`
	ProximityVerified bool        `json:"proximity_verified" db:"proximity_verified"`
	ScheduledTime     *time.Time  `json:"scheduled_time,omitempty" db:"scheduled_time"`
	LocationNote      *string     `json:"location_note,omitempty" db:"location_note"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// Claim is one participant's report of the outcome.
type Claim struct {
	ClaimedWinner uuid.UUID `json:"claimed_winner"`
	Score         string    `json:"score"`
}

type MatchResult struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	MatchID    uuid.UUID  `json:"match_id" db:"match_id"`
	Sport      string     `json:"sport" db:"sport"`
	Player1ID  uuid.UUID  `json:"player1_id" db:"player1_id"`
	Player2ID  uuid.UUID  `json:"player2_id" db:"player2_id"`
	Player1    *Claim     `json:"player1_claim,omitempty"`
	Player2    *Claim     `json:"player2_claim,omitempty"`
	WinnerID   *uuid.UUID `json:"winner_id,omitempty" db:"winner_id"`
	IsVerified bool       `json:"is_verified" db:"is_verified"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// MatchWithResult is the history view of a match joined with its result row, if any.
type MatchWithResult struct {
	MatchRequest
	Result *MatchResult `json:"result,omitempty"`
}

// OpenBroadcast is an active broadcast joined with the creator's public profile.
type OpenBroadcast struct {
	MatchRequest
	CreatorName     string  `json:"creator_name"`
	CreatorElo      int     `json:"creator_elo"`
	CreatorLocality *string `json:"creator_locality,omitempty"`
}

type CreateChallengeRequest struct {
	OpponentID    string     `json:"opponent_id"`
	Sport         string     `json:"sport"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	LocationNote  *string    `json:"location_note,omitempty"`
}

type CreateBroadcastRequest struct {
	Sport         string     `json:"sport"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	LocationNote  *string    `json:"location_note,omitempty"`
}

// CheckInRequest carries either a coordinate or the reason the device could not produce one.
type CheckInRequest struct {
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	LocationError string   `json:"location_error,omitempty"`
}

type CheckInOutcome struct {
	Match          *MatchRequest `json:"match"`
	Waiting        bool          `json:"waiting"`
	Verified       bool          `json:"verified"`
	DistanceMeters *int          `json:"distance_meters,omitempty"`
	LocationSource string        `json:"location_source"`
	Message        string        `json:"message"`
}

type SubmitClaimRequest struct {
	ResultType ResultType `json:"result_type"`
	Score      string     `json:"score"`
}
