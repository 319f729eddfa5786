package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/metrics"
	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/types/profile"
)

// RadarInvalidator drops cached candidate lists for users whose matches changed.
type RadarInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...uuid.UUID)
}

type RadarService struct {
	profiles ProfileStore
	cache    *redis.Client
	ttl      time.Duration
}

// NewRadarService works without a cache when cache is nil.
func NewRadarService(profiles ProfileStore, cache *redis.Client, ttl time.Duration) *RadarService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RadarService{profiles: profiles, cache: cache, ttl: ttl}
}

func radarKey(userID uuid.UUID, sport string) string {
	return fmt.Sprintf("radar:%s:%s", userID, sport)
}

func normalizeSport(sport string) string {
	return strings.ToLower(strings.TrimSpace(sport))
}

// Candidates returns ranked opponents for the caller, in the order the ranking query produced.
func (s *RadarService) Candidates(ctx context.Context, sess session.Session, sport string) ([]*profile.RadarCandidate, error) {
	sport = normalizeSport(sport)
	key := radarKey(sess.UserID, sport)
	log := logging.WithUser(sess.UserID.String()).WithField("sport", sport)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var cached []*profile.RadarCandidate
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				metrics.RadarCache.WithLabelValues("hit").Inc()
				return cached, nil
			}
			log.Warn("Radar: discarding undecodable cache entry")
		case errors.Is(err, redis.Nil):
		default:
			log.WithError(err).Warn("Radar: cache read failed, querying directly")
		}
		metrics.RadarCache.WithLabelValues("miss").Inc()
	}

	candidates, err := s.profiles.RadarCandidates(ctx, sess.UserID, sport)
	if err != nil {
		return nil, fmt.Errorf("failed to query radar: %w", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(candidates); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				log.WithError(err).Warn("Radar: cache write failed")
			}
		}
	}
	return candidates, nil
}

func (s *RadarService) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if s.cache == nil {
		return
	}
	for _, id := range userIDs {
		var keys []string
		iter := s.cache.Scan(ctx, 0, fmt.Sprintf("radar:%s:*", id), 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			logging.WithUser(id.String()).WithError(err).Warn("Radar: cache scan failed")
			continue
		}
		if len(keys) == 0 {
			continue
		}
		if err := s.cache.Del(ctx, keys...).Err(); err != nil {
			logging.WithUser(id.String()).WithError(err).Warn("Radar: cache invalidation failed")
		}
	}
}
