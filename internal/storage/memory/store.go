// Package memory is an in-process Store. Every conditional write of the
// postgres store is reproduced here under a single mutex.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/types/friendship"
	"pickYourSocksAPI/internal/types/match"
	"pickYourSocksAPI/internal/types/message"
	"pickYourSocksAPI/internal/types/notification"
	"pickYourSocksAPI/internal/types/post"
	"pickYourSocksAPI/internal/types/profile"
)

type pairKey [2]uuid.UUID

func pairOf(a, b uuid.UUID) pairKey {
	if a.String() < b.String() {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

type Store struct {
	mu sync.Mutex

	matches       map[uuid.UUID]*match.MatchRequest
	results       map[uuid.UUID]*match.MatchResult // keyed by match id
	profiles      map[uuid.UUID]*profile.Profile
	friendships   map[pairKey]*friendship.Friendship
	messages      []*message.Message
	notifications []*notification.Notification
	devices       map[uuid.UUID][]notification.DeviceToken
	posts         []*post.Post

	now func() time.Time
	seq int64
}

func NewStore() *Store {
	return &Store{
		matches:     make(map[uuid.UUID]*match.MatchRequest),
		results:     make(map[uuid.UUID]*match.MatchResult),
		profiles:    make(map[uuid.UUID]*profile.Profile),
		friendships: make(map[pairKey]*friendship.Friendship),
		devices:     make(map[uuid.UUID][]notification.DeviceToken),
		now:         time.Now,
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() {}

// tick returns strictly increasing timestamps so ordering by time is stable.
func (s *Store) tick() time.Time {
	s.seq++
	return s.now().UTC().Add(time.Duration(s.seq) * time.Microsecond)
}

func cloneMatch(m *match.MatchRequest) *match.MatchRequest {
	if m == nil {
		return nil
	}
	c := *m
	if m.OpponentID != nil {
		v := *m.OpponentID
		c.OpponentID = &v
	}
	if m.AcceptedBy != nil {
		v := *m.AcceptedBy
		c.AcceptedBy = &v
	}
	if m.CreatorLocation != nil {
		v := *m.CreatorLocation
		c.CreatorLocation = &v
	}
	if m.AcceptorLocation != nil {
		v := *m.AcceptorLocation
		c.AcceptorLocation = &v
	}
	return &c
}

func cloneResult(r *match.MatchResult) *match.MatchResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.Player1 != nil {
		v := *r.Player1
		c.Player1 = &v
	}
	if r.Player2 != nil {
		v := *r.Player2
		c.Player2 = &v
	}
	if r.WinnerID != nil {
		v := *r.WinnerID
		c.WinnerID = &v
	}
	return &c
}

func cloneProfile(p *profile.Profile) *profile.Profile {
	c := *p
	c.Sports = append([]string(nil), p.Sports...)
	if p.EloRatings != nil {
		c.EloRatings = make(map[string]int, len(p.EloRatings))
		for k, v := range p.EloRatings {
			c.EloRatings[k] = v
		}
	}
	return &c
}
