package memory

import (
	"context"

	"github.com/google/uuid"

	rules "pickYourSocksAPI/internal/match"
	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/match"
)

func (s *Store) SubmitClaim(ctx context.Context, matchID, userID uuid.UUID, rt match.ResultType, score string) (*match.MatchResult, *match.MatchRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return nil, nil, storage.ErrNotFound
	}

	existing := cloneResult(s.results[matchID])
	r, err := rules.ApplyClaim(existing, m, userID, rt, score)
	if err != nil {
		return nil, nil, err
	}

	now := s.tick()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.results[matchID] = r
	return cloneResult(r), cloneMatch(m), nil
}

func (s *Store) GetResult(ctx context.Context, matchID uuid.UUID) (*match.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[matchID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneResult(r), nil
}
