package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	rules "pickYourSocksAPI/internal/match"
	"pickYourSocksAPI/internal/types/match"
)

const resultSelect = `id, sport, player1_id, player2_id,
	player1_claimed_winner, player1_score, player2_claimed_winner, player2_score,
	winner_id, is_verified, created_at, updated_at`

// resultColumns is nullable so it can sit on the right side of a LEFT JOIN.
type resultColumns struct {
	id, player1, player2 *uuid.UUID
	p1Winner, p2Winner   *uuid.UUID
	winner               *uuid.UUID
	sport                *string
	p1Score, p2Score     *string
	verified             *bool
	createdAt, updatedAt *time.Time
}

func (rc *resultColumns) dest() []any {
	return []any{
		&rc.id, &rc.sport, &rc.player1, &rc.player2,
		&rc.p1Winner, &rc.p1Score, &rc.p2Winner, &rc.p2Score,
		&rc.winner, &rc.verified, &rc.createdAt, &rc.updatedAt,
	}
}

func (rc *resultColumns) result() *match.MatchResult {
	r := &match.MatchResult{WinnerID: rc.winner}
	if rc.id != nil {
		r.ID = *rc.id
	}
	if rc.sport != nil {
		r.Sport = *rc.sport
	}
	if rc.player1 != nil {
		r.Player1ID = *rc.player1
	}
	if rc.player2 != nil {
		r.Player2ID = *rc.player2
	}
	if rc.p1Winner != nil {
		r.Player1 = &match.Claim{ClaimedWinner: *rc.p1Winner, Score: deref(rc.p1Score)}
	}
	if rc.p2Winner != nil {
		r.Player2 = &match.Claim{ClaimedWinner: *rc.p2Winner, Score: deref(rc.p2Score)}
	}
	if rc.verified != nil {
		r.IsVerified = *rc.verified
	}
	if rc.createdAt != nil {
		r.CreatedAt = *rc.createdAt
	}
	if rc.updatedAt != nil {
		r.UpdatedAt = *rc.updatedAt
	}
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func scanResult(row pgx.Row, matchID uuid.UUID) (*match.MatchResult, error) {
	var rc resultColumns
	if err := row.Scan(rc.dest()...); err != nil {
		return nil, err
	}
	r := rc.result()
	r.MatchID = matchID
	return r, nil
}

func claimArgs(c *match.Claim) (*uuid.UUID, *string) {
	if c == nil {
		return nil, nil
	}
	w, s := c.ClaimedWinner, c.Score
	return &w, &s
}

// SubmitClaim locks the match row so the reporter's slot and the derived
// verification are written against a consistent view of both claims.
func (s *Store) SubmitClaim(ctx context.Context, matchID, userID uuid.UUID, rt match.ResultType, score string) (*match.MatchResult, *match.MatchRequest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := scanMatch(tx.QueryRow(ctx, `SELECT `+matchColumns+` FROM match_requests WHERE id = $1 FOR UPDATE`, matchID))
	if err != nil {
		return nil, nil, translate(err)
	}

	existing, err := scanResult(tx.QueryRow(ctx, `SELECT `+resultSelect+` FROM match_results WHERE match_id = $1`, matchID), matchID)
	if errors.Is(err, pgx.ErrNoRows) {
		existing = nil
	} else if err != nil {
		return nil, nil, fmt.Errorf("load result: %w", err)
	}

	r, err := rules.ApplyClaim(existing, m, userID, rt, score)
	if err != nil {
		return nil, nil, err
	}

	p1Winner, p1Score := claimArgs(r.Player1)
	p2Winner, p2Score := claimArgs(r.Player2)

	query := `
		INSERT INTO match_results (
			match_id, sport, player1_id, player2_id,
			player1_claimed_winner, player1_score, player2_claimed_winner, player2_score,
			winner_id, is_verified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (match_id) DO UPDATE SET
			player1_claimed_winner = EXCLUDED.player1_claimed_winner,
			player1_score          = EXCLUDED.player1_score,
			player2_claimed_winner = EXCLUDED.player2_claimed_winner,
			player2_score          = EXCLUDED.player2_score,
			winner_id              = EXCLUDED.winner_id,
			is_verified            = EXCLUDED.is_verified,
			updated_at             = NOW()
		RETURNING ` + resultSelect

	saved, err := scanResult(tx.QueryRow(ctx, query,
		matchID, r.Sport, r.Player1ID, r.Player2ID,
		p1Winner, p1Score, p2Winner, p2Score,
		r.WinnerID, r.IsVerified,
	), matchID)
	if err != nil {
		return nil, nil, fmt.Errorf("save result: %w", translate(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit claim: %w", err)
	}
	return saved, m, nil
}

func (s *Store) GetResult(ctx context.Context, matchID uuid.UUID) (*match.MatchResult, error) {
	r, err := scanResult(s.pool.QueryRow(ctx, `SELECT `+resultSelect+` FROM match_results WHERE match_id = $1`, matchID), matchID)
	if err != nil {
		return nil, translate(err)
	}
	return r, nil
}
