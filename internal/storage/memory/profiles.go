package memory

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/profile"
)

const radarLimit = 50

// PutProfile inserts or replaces a profile. Used for seeding.
func (s *Store) PutProfile(p *profile.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cloneProfile(p)
	if c.Elo == 0 {
		c.Elo = profile.DefaultElo
	}
	if c.ReliabilityScore == 0 {
		c.ReliabilityScore = profile.DefaultReliability
	}
	c.UpdatedAt = s.tick()
	s.profiles[c.ID] = c
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *Store) GetProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if p.ClerkID != nil && *p.ClerkID == clerkID {
			return cloneProfile(p), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) EnsureProfile(ctx context.Context, id uuid.UUID, email string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[id]; ok {
		return cloneProfile(p), nil
	}
	p := &profile.Profile{
		ID:               id,
		Name:             defaultName(email),
		Sports:           []string{},
		Elo:              profile.DefaultElo,
		ReliabilityScore: profile.DefaultReliability,
		UpdatedAt:        s.tick(),
	}
	if email != "" {
		e := email
		p.Email = &e
	}
	s.profiles[id] = p
	return cloneProfile(p), nil
}

func defaultName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return "Player"
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.ProfilePhoto != nil {
		v := *req.ProfilePhoto
		p.ProfilePhoto = &v
	}
	if req.Locality != nil {
		v := *req.Locality
		p.Locality = &v
	}
	if req.Region != nil {
		v := *req.Region
		p.Region = &v
	}
	if req.Bio != nil {
		v := *req.Bio
		p.Bio = &v
	}
	if req.Sports != nil {
		p.Sports = append([]string(nil), (*req.Sports)...)
	}
	p.UpdatedAt = s.tick()
	return cloneProfile(p), nil
}

func (s *Store) SetPublicKey(ctx context.Context, id uuid.UUID, publicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return storage.ErrNotFound
	}
	k := publicKey
	p.PublicKey = &k
	p.UpdatedAt = s.tick()
	return nil
}

// MatchQuality is the ranking used by get_radar_matches.
func MatchQuality(myElo, theirElo, reliability int) float64 {
	closeness := 1 - math.Abs(float64(theirElo-myElo))/400
	if closeness < 0 {
		closeness = 0
	}
	q := closeness * float64(reliability) / 100
	return math.Round(q*1000) / 1000
}

func plays(p *profile.Profile, sport string) bool {
	if sport == "" {
		return true
	}
	for _, sp := range p.Sports {
		if strings.EqualFold(sp, sport) {
			return true
		}
	}
	return false
}

func (s *Store) RadarCandidates(ctx context.Context, userID uuid.UUID, sport string) ([]*profile.RadarCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*profile.RadarCandidate{}
	me, ok := s.profiles[userID]
	if !ok {
		return out, nil
	}
	myElo := me.SportElo(sport)

	for id, p := range s.profiles {
		if id == userID || !plays(p, sport) {
			continue
		}
		elo := p.SportElo(sport)
		out = append(out, &profile.RadarCandidate{
			ID:               p.ID,
			Name:             p.Name,
			ProfilePhoto:     p.ProfilePhoto,
			Locality:         p.Locality,
			Elo:              elo,
			ReliabilityScore: p.ReliabilityScore,
			MatchQuality:     MatchQuality(myElo, elo, p.ReliabilityScore),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchQuality != out[j].MatchQuality {
			return out[i].MatchQuality > out[j].MatchQuality
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if len(out) > radarLimit {
		out = out[:radarLimit]
	}
	return out, nil
}
