package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	rules "pickYourSocksAPI/internal/match"
	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/match"
)

func (s *Store) CreateMatch(ctx context.Context, m *match.MatchRequest) (*match.MatchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cloneMatch(m)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = s.tick()
	c.UpdatedAt = c.CreatedAt
	s.matches[c.ID] = c
	return cloneMatch(c), nil
}

func (s *Store) GetMatch(ctx context.Context, id uuid.UUID) (*match.MatchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneMatch(m), nil
}

func (s *Store) ListMatchesForUser(ctx context.Context, userID uuid.UUID) ([]*match.MatchWithResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*match.MatchWithResult{}
	for _, m := range s.matches {
		involved := m.CreatorID == userID ||
			(m.OpponentID != nil && *m.OpponentID == userID) ||
			(m.AcceptedBy != nil && *m.AcceptedBy == userID)
		if !involved {
			continue
		}
		out = append(out, &match.MatchWithResult{
			MatchRequest: *cloneMatch(m),
			Result:       cloneResult(s.results[m.ID]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListOpenBroadcasts(ctx context.Context, excludeUserID uuid.UUID, sport string) ([]*match.OpenBroadcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*match.OpenBroadcast{}
	for _, m := range s.matches {
		if m.Status != match.StatusActive || m.CreatorID == excludeUserID {
			continue
		}
		if sport != "" && m.Sport != sport {
			continue
		}
		b := &match.OpenBroadcast{MatchRequest: *cloneMatch(m)}
		if p, ok := s.profiles[m.CreatorID]; ok {
			b.CreatorName = p.Name
			b.CreatorElo = p.SportElo(m.Sport)
			b.CreatorLocality = p.Locality
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) AcceptMatch(ctx context.Context, id, userID uuid.UUID) (*match.MatchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if err := rules.CheckAccept(m, userID); err != nil {
		return nil, err
	}
	rules.ApplyAccept(m, userID)
	m.UpdatedAt = s.tick()
	return cloneMatch(m), nil
}

func (s *Store) DeclineMatch(ctx context.Context, id, userID uuid.UUID) (*match.MatchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if err := rules.CheckDecline(m, userID); err != nil {
		return nil, err
	}
	m.Status = match.StatusDeclined
	m.UpdatedAt = s.tick()
	return cloneMatch(m), nil
}

func (s *Store) CancelMatch(ctx context.Context, id, userID uuid.UUID) (*match.MatchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	verified := s.results[id] != nil && s.results[id].IsVerified
	if err := rules.CheckCancel(m, userID, verified); err != nil {
		return nil, err
	}
	delete(s.matches, id)
	delete(s.results, id)
	return cloneMatch(m), nil
}

func (s *Store) RecordCheckIn(ctx context.Context, id, userID uuid.UUID, c match.Coordinate) (*match.MatchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	role, err := rules.CheckCheckIn(m, userID)
	if err != nil {
		return nil, err
	}
	rules.ApplyCheckIn(m, role, c)
	m.UpdatedAt = s.tick()
	return cloneMatch(m), nil
}

func (s *Store) MarkProximityVerified(ctx context.Context, id uuid.UUID) (*match.MatchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if m.Status != match.StatusAccepted {
		return nil, rules.ErrInvalidTransition
	}
	if m.ProximityVerified {
		return nil, rules.ErrAlreadyVerified
	}
	m.ProximityVerified = true
	m.UpdatedAt = s.tick()
	return cloneMatch(m), nil
}
