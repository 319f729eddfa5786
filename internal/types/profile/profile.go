package profile

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultElo         = 1200
	DefaultReliability = 100
)

// Profile mirrors the profiles table. Rating columns are maintained outside this service.
type Profile struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	ClerkID          *string        `json:"-" db:"clerk_id"`
	Name             string         `json:"name" db:"name"`
	Email            *string        `json:"email,omitempty" db:"email"`
	ProfilePhoto     *string        `json:"profile_photo,omitempty" db:"profile_photo"`
	Locality         *string        `json:"locality,omitempty" db:"locality"`
	Region           *string        `json:"region,omitempty" db:"region"`
	Bio              *string        `json:"bio,omitempty" db:"bio"`
	Sports           []string       `json:"sports" db:"sports"`
	Elo              int            `json:"elo" db:"elo"`
	EloRatings       map[string]int `json:"elo_ratings,omitempty" db:"elo_ratings"`
	ReliabilityScore int            `json:"reliability_score" db:"reliability_score"`
	PublicKey        *string        `json:"public_key,omitempty" db:"public_key"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// SportElo returns the per-sport rating, falling back to the overall one.
func (p *Profile) SportElo(sport string) int {
	if r, ok := p.EloRatings[sport]; ok {
		return r
	}
	if p.Elo == 0 {
		return DefaultElo
	}
	return p.Elo
}

// UpdateProfileRequest only carries the fields a user may edit. Nil means unchanged.
type UpdateProfileRequest struct {
	Name         *string   `json:"name,omitempty"`
	ProfilePhoto *string   `json:"profile_photo,omitempty"`
	Locality     *string   `json:"locality,omitempty"`
	Region       *string   `json:"region,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	Sports       *[]string `json:"sports,omitempty"`
}

type SetPublicKeyRequest struct {
	PublicKey string `json:"public_key"`
}

type PublicKeyResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	PublicKey *string   `json:"public_key"`
}

// RadarCandidate is one row of get_radar_matches.
type RadarCandidate struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	ProfilePhoto     *string   `json:"profile_photo,omitempty"`
	Locality         *string   `json:"locality,omitempty"`
	Elo              int       `json:"elo"`
	ReliabilityScore int       `json:"reliability_score"`
	MatchQuality     float64   `json:"match_quality"`
}
