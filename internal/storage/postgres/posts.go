package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/types/post"
)

const postColumns = `p.id, p.user_id, p.caption, p.sport, p.media_url, p.media_type, p.created_at`

func (s *Store) CreatePost(ctx context.Context, p *post.Post) (*post.Post, error) {
	out := *p
	err := s.pool.QueryRow(ctx, `
		INSERT INTO posts (user_id, caption, sport, media_url, media_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, p.UserID, p.Caption, p.Sport, p.MediaURL, p.MediaType).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", translate(err))
	}
	return &out, nil
}

func (s *Store) ListFeed(ctx context.Context, sports []string, limit int) ([]*post.FeedPost, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+postColumns+`, COALESCE(a.name, 'unknown'), a.profile_photo
		FROM posts p
		LEFT JOIN profiles a ON a.id = p.user_id
		WHERE p.sport = ANY($1)
		ORDER BY p.created_at DESC
		LIMIT $2
	`, sports, limit)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	defer rows.Close()

	out := []*post.FeedPost{}
	for rows.Next() {
		fp := &post.FeedPost{}
		if err := rows.Scan(
			&fp.ID, &fp.UserID, &fp.Caption, &fp.Sport, &fp.MediaURL, &fp.MediaType, &fp.CreatedAt,
			&fp.Author.Name, &fp.Author.ProfilePhoto,
		); err != nil {
			return nil, fmt.Errorf("scan feed post: %w", err)
		}
		fp.Author.ID = fp.UserID
		out = append(out, fp)
	}
	return out, rows.Err()
}

func (s *Store) ListPostsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*post.Post, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	out := []*post.Post{}
	for rows.Next() {
		p := &post.Post{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Caption, &p.Sport, &p.MediaURL, &p.MediaType, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
