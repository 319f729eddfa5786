package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	rules "pickYourSocksAPI/internal/match"
	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/match"
)

const matchColumns = `id, user_id, opponent_id, sport, status, accepted_by,
	creator_lat, creator_lng, acceptor_lat, acceptor_lng, proximity_verified,
	scheduled_time, location_note, created_at, updated_at`

func scanMatch(row pgx.Row) (*match.MatchRequest, error) {
	m := &match.MatchRequest{}
	var cLat, cLng, aLat, aLng *float64
	err := row.Scan(
		&m.ID, &m.CreatorID, &m.OpponentID, &m.Sport, &m.Status, &m.AcceptedBy,
		&cLat, &cLng, &aLat, &aLng, &m.ProximityVerified,
		&m.ScheduledTime, &m.LocationNote, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cLat != nil && cLng != nil {
		m.CreatorLocation = &match.Coordinate{Latitude: *cLat, Longitude: *cLng}
	}
	if aLat != nil && aLng != nil {
		m.AcceptorLocation = &match.Coordinate{Latitude: *aLat, Longitude: *aLng}
	}
	return m, nil
}

func (s *Store) CreateMatch(ctx context.Context, m *match.MatchRequest) (*match.MatchRequest, error) {
	query := `
		INSERT INTO match_requests (user_id, opponent_id, sport, status, scheduled_time, location_note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + matchColumns

	created, err := scanMatch(s.pool.QueryRow(ctx, query,
		m.CreatorID, m.OpponentID, m.Sport, m.Status, m.ScheduledTime, m.LocationNote))
	if err != nil {
		return nil, fmt.Errorf("create match: %w", translate(err))
	}
	return created, nil
}

func (s *Store) GetMatch(ctx context.Context, id uuid.UUID) (*match.MatchRequest, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM match_requests WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return m, nil
}

// classify explains why a guarded write touched no row. A rule that would
// have allowed the write means another writer got there first.
func (s *Store) classify(ctx context.Context, id uuid.UUID, check func(*match.MatchRequest) error) error {
	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	if err := check(m); err != nil {
		return err
	}
	return rules.ErrMatchConflict
}

func (s *Store) ListMatchesForUser(ctx context.Context, userID uuid.UUID) ([]*match.MatchWithResult, error) {
	query := `
		SELECT m.id, m.user_id, m.opponent_id, m.sport, m.status, m.accepted_by,
			m.creator_lat, m.creator_lng, m.acceptor_lat, m.acceptor_lng, m.proximity_verified,
			m.scheduled_time, m.location_note, m.created_at, m.updated_at,
			r.id, r.sport, r.player1_id, r.player2_id,
			r.player1_claimed_winner, r.player1_score, r.player2_claimed_winner, r.player2_score,
			r.winner_id, r.is_verified, r.created_at, r.updated_at
		FROM match_requests m
		LEFT JOIN match_results r ON r.match_id = m.id
		WHERE m.user_id = $1 OR m.opponent_id = $1 OR m.accepted_by = $1
		ORDER BY m.created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	out := []*match.MatchWithResult{}
	for rows.Next() {
		m, r, err := scanMatchWithResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, &match.MatchWithResult{MatchRequest: *m, Result: r})
	}
	return out, rows.Err()
}

func scanMatchWithResult(rows pgx.Rows) (*match.MatchRequest, *match.MatchResult, error) {
	m := &match.MatchRequest{}
	var cLat, cLng, aLat, aLng *float64
	var rc resultColumns
	dest := append([]any{
		&m.ID, &m.CreatorID, &m.OpponentID, &m.Sport, &m.Status, &m.AcceptedBy,
		&cLat, &cLng, &aLat, &aLng, &m.ProximityVerified,
		&m.ScheduledTime, &m.LocationNote, &m.CreatedAt, &m.UpdatedAt,
	}, rc.dest()...)
	err := rows.Scan(dest...)
	if err != nil {
		return nil, nil, err
	}
	if cLat != nil && cLng != nil {
		m.CreatorLocation = &match.Coordinate{Latitude: *cLat, Longitude: *cLng}
	}
	if aLat != nil && aLng != nil {
		m.AcceptorLocation = &match.Coordinate{Latitude: *aLat, Longitude: *aLng}
	}
	if rc.id == nil {
		return m, nil, nil
	}
	r := rc.result()
	r.MatchID = m.ID
	return m, r, nil
}

func (s *Store) ListOpenBroadcasts(ctx context.Context, excludeUserID uuid.UUID, sport string) ([]*match.OpenBroadcast, error) {
	query := `
		SELECT m.id, m.user_id, m.opponent_id, m.sport, m.status, m.accepted_by,
			m.creator_lat, m.creator_lng, m.acceptor_lat, m.acceptor_lng, m.proximity_verified,
			m.scheduled_time, m.location_note, m.created_at, m.updated_at,
			p.name, COALESCE((p.elo_ratings ->> m.sport)::INTEGER, p.elo), p.locality
		FROM match_requests m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.status = 'active'
		  AND m.user_id <> $1
		  AND ($2 = '' OR m.sport = $2)
		ORDER BY m.created_at DESC
		LIMIT 100
	`
	rows, err := s.pool.Query(ctx, query, excludeUserID, sport)
	if err != nil {
		return nil, fmt.Errorf("list open broadcasts: %w", err)
	}
	defer rows.Close()

	out := []*match.OpenBroadcast{}
	for rows.Next() {
		b := &match.OpenBroadcast{}
		var cLat, cLng, aLat, aLng *float64
		err := rows.Scan(
			&b.ID, &b.CreatorID, &b.OpponentID, &b.Sport, &b.Status, &b.AcceptedBy,
			&cLat, &cLng, &aLat, &aLng, &b.ProximityVerified,
			&b.ScheduledTime, &b.LocationNote, &b.CreatedAt, &b.UpdatedAt,
			&b.CreatorName, &b.CreatorElo, &b.CreatorLocality,
		)
		if err != nil {
			return nil, fmt.Errorf("scan broadcast: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) AcceptMatch(ctx context.Context, id, userID uuid.UUID) (*match.MatchRequest, error) {
	query := `
		UPDATE match_requests
		SET status = 'accepted', accepted_by = $2, opponent_id = $2, updated_at = NOW()
		WHERE id = $1
		  AND status IN ('pending', 'active')
		  AND user_id <> $2
		  AND (opponent_id IS NULL OR opponent_id = $2)
		RETURNING ` + matchColumns

	m, err := scanMatch(s.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classify(ctx, id, func(m *match.MatchRequest) error { return rules.CheckAccept(m, userID) })
	}
	if err != nil {
		return nil, fmt.Errorf("accept match: %w", err)
	}
	return m, nil
}

func (s *Store) DeclineMatch(ctx context.Context, id, userID uuid.UUID) (*match.MatchRequest, error) {
	query := `
		UPDATE match_requests
		SET status = 'declined', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND opponent_id = $2
		RETURNING ` + matchColumns

	m, err := scanMatch(s.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classify(ctx, id, func(m *match.MatchRequest) error { return rules.CheckDecline(m, userID) })
	}
	if err != nil {
		return nil, fmt.Errorf("decline match: %w", err)
	}
	return m, nil
}

func (s *Store) CancelMatch(ctx context.Context, id, userID uuid.UUID) (*match.MatchRequest, error) {
	query := `
		DELETE FROM match_requests m
		WHERE m.id = $1
		  AND (
		    (m.status = 'accepted'
		      AND (m.user_id = $2 OR m.accepted_by = $2 OR (m.accepted_by IS NULL AND m.opponent_id = $2))
		      AND NOT EXISTS (SELECT 1 FROM match_results r WHERE r.match_id = m.id AND r.is_verified))
		    OR (m.status <> 'accepted' AND m.user_id = $2)
		  )
		RETURNING ` + matchColumns

	m, err := scanMatch(s.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classify(ctx, id, func(m *match.MatchRequest) error {
			verified := false
			if r, err := s.GetResult(ctx, id); err == nil {
				verified = r.IsVerified
			} else if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			return rules.CheckCancel(m, userID, verified)
		})
	}
	if err != nil {
		return nil, fmt.Errorf("cancel match: %w", err)
	}
	return m, nil
}

func (s *Store) RecordCheckIn(ctx context.Context, id, userID uuid.UUID, c match.Coordinate) (*match.MatchRequest, error) {
	query := `
		UPDATE match_requests
		SET creator_lat  = CASE WHEN user_id = $2 THEN $3::DOUBLE PRECISION ELSE creator_lat END,
		    creator_lng  = CASE WHEN user_id = $2 THEN $4::DOUBLE PRECISION ELSE creator_lng END,
		    acceptor_lat = CASE WHEN accepted_by = $2 THEN $3::DOUBLE PRECISION ELSE acceptor_lat END,
		    acceptor_lng = CASE WHEN accepted_by = $2 THEN $4::DOUBLE PRECISION ELSE acceptor_lng END,
		    updated_at = NOW()
		WHERE id = $1
		  AND status = 'accepted'
		  AND proximity_verified = FALSE
		  AND accepted_by IS NOT NULL AND opponent_id IS NOT NULL
		  AND (user_id = $2 OR accepted_by = $2)
		RETURNING ` + matchColumns

	m, err := scanMatch(s.pool.QueryRow(ctx, query, id, userID, c.Latitude, c.Longitude))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classify(ctx, id, func(m *match.MatchRequest) error {
			_, err := rules.CheckCheckIn(m, userID)
			return err
		})
	}
	if err != nil {
		return nil, fmt.Errorf("record check-in: %w", err)
	}
	return m, nil
}

func (s *Store) MarkProximityVerified(ctx context.Context, id uuid.UUID) (*match.MatchRequest, error) {
	query := `
		UPDATE match_requests
		SET proximity_verified = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = 'accepted' AND proximity_verified = FALSE
		RETURNING ` + matchColumns

	m, err := scanMatch(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classify(ctx, id, func(m *match.MatchRequest) error {
			if m.ProximityVerified {
				return rules.ErrAlreadyVerified
			}
			return rules.ErrInvalidTransition
		})
	}
	if err != nil {
		return nil, fmt.Errorf("mark proximity verified: %w", err)
	}
	return m, nil
}
