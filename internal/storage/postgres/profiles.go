package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/profile"
)

const profileColumns = `id, clerk_id, name, email, profile_photo, locality, region, bio,
	sports, elo, elo_ratings, reliability_score, public_key, updated_at`

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	p := &profile.Profile{}
	err := row.Scan(
		&p.ID, &p.ClerkID, &p.Name, &p.Email, &p.ProfilePhoto, &p.Locality, &p.Region, &p.Bio,
		&p.Sports, &p.Elo, &p.EloRatings, &p.ReliabilityScore, &p.PublicKey, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	p, err := scanProfile(s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (s *Store) GetProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	p, err := scanProfile(s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE clerk_id = $1`, clerkID))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (s *Store) EnsureProfile(ctx context.Context, id uuid.UUID, email string) (*profile.Profile, error) {
	name := "Player"
	if i := strings.Index(email, "@"); i > 0 {
		name = email[:i]
	}
	var emailArg *string
	if email != "" {
		emailArg = &email
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (id, name, email, elo, reliability_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, id, name, emailArg, profile.DefaultElo, profile.DefaultReliability)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return s.GetProfile(ctx, id)
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	var sports []string
	if req.Sports != nil {
		sports = *req.Sports
		if sports == nil {
			sports = []string{}
		}
	}

	query := `
		UPDATE profiles
		SET name          = COALESCE($2, name),
		    profile_photo = COALESCE($3, profile_photo),
		    locality      = COALESCE($4, locality),
		    region        = COALESCE($5, region),
		    bio           = COALESCE($6, bio),
		    sports        = COALESCE($7::TEXT[], sports),
		    updated_at    = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	p, err := scanProfile(s.pool.QueryRow(ctx, query,
		id, req.Name, req.ProfilePhoto, req.Locality, req.Region, req.Bio, sports))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (s *Store) SetPublicKey(ctx context.Context, id uuid.UUID, publicKey string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET public_key = $2, updated_at = NOW() WHERE id = $1`, id, publicKey)
	if err != nil {
		return fmt.Errorf("set public key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) RadarCandidates(ctx context.Context, userID uuid.UUID, sport string) ([]*profile.RadarCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, profile_photo, locality, elo, reliability_score, match_quality
		FROM get_radar_matches($1, $2)
	`, userID, sport)
	if err != nil {
		return nil, fmt.Errorf("radar query: %w", err)
	}
	defer rows.Close()

	out := []*profile.RadarCandidate{}
	for rows.Next() {
		c := &profile.RadarCandidate{}
		if err := rows.Scan(&c.ID, &c.Name, &c.ProfilePhoto, &c.Locality, &c.Elo, &c.ReliabilityScore, &c.MatchQuality); err != nil {
			return nil, fmt.Errorf("scan radar row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
