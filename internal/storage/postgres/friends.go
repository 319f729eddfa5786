package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/friendship"
)

const friendshipColumns = `id, requester_id, receiver_id, status, created_at`

func scanFriendship(row pgx.Row) (*friendship.Friendship, error) {
	f := &friendship.Friendship{}
	if err := row.Scan(&f.ID, &f.RequesterID, &f.ReceiverID, &f.Status, &f.CreatedAt); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Store) CreateFriendRequest(ctx context.Context, requesterID, receiverID uuid.UUID) (*friendship.Friendship, error) {
	query := `
		INSERT INTO friendships (requester_id, receiver_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT DO NOTHING
		RETURNING ` + friendshipColumns

	f, err := scanFriendship(s.pool.QueryRow(ctx, query, requesterID, receiverID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("create friend request: %w", translate(err))
	}
	return f, nil
}

func (s *Store) GetFriendship(ctx context.Context, a, b uuid.UUID) (*friendship.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships
		WHERE (requester_id = $1 AND receiver_id = $2) OR (requester_id = $2 AND receiver_id = $1)`
	f, err := scanFriendship(s.pool.QueryRow(ctx, query, a, b))
	if err != nil {
		return nil, translate(err)
	}
	return f, nil
}

func (s *Store) AcceptFriendRequest(ctx context.Context, requesterID, receiverID uuid.UUID) (*friendship.Friendship, error) {
	query := `
		UPDATE friendships SET status = 'accepted'
		WHERE requester_id = $1 AND receiver_id = $2 AND status = 'pending'
		RETURNING ` + friendshipColumns
	f, err := scanFriendship(s.pool.QueryRow(ctx, query, requesterID, receiverID))
	if err != nil {
		return nil, translate(err)
	}
	return f, nil
}

func (s *Store) DeleteFriendship(ctx context.Context, a, b uuid.UUID) (*friendship.Friendship, error) {
	query := `
		DELETE FROM friendships
		WHERE (requester_id = $1 AND receiver_id = $2) OR (requester_id = $2 AND receiver_id = $1)
		RETURNING ` + friendshipColumns
	f, err := scanFriendship(s.pool.QueryRow(ctx, query, a, b))
	if err != nil {
		return nil, translate(err)
	}
	return f, nil
}

func (s *Store) listFriendViews(ctx context.Context, query string, userID uuid.UUID) ([]*friendship.Friend, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	out := []*friendship.Friend{}
	for rows.Next() {
		f := &friendship.Friend{}
		if err := rows.Scan(&f.ID, &f.Name, &f.ProfilePhoto, &f.Elo, &f.PublicKey, &f.Since); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) ListFriends(ctx context.Context, userID uuid.UUID) ([]*friendship.Friend, error) {
	return s.listFriendViews(ctx, `
		SELECT p.id, p.name, p.profile_photo, p.elo, p.public_key, f.created_at
		FROM friendships f
		JOIN profiles p ON p.id = CASE WHEN f.requester_id = $1 THEN f.receiver_id ELSE f.requester_id END
		WHERE f.status = 'accepted' AND (f.requester_id = $1 OR f.receiver_id = $1)
		ORDER BY p.name
	`, userID)
}

func (s *Store) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]*friendship.Friend, error) {
	return s.listFriendViews(ctx, `
		SELECT p.id, p.name, p.profile_photo, p.elo, p.public_key, f.created_at
		FROM friendships f
		JOIN profiles p ON p.id = f.requester_id
		WHERE f.status = 'pending' AND f.receiver_id = $1
		ORDER BY f.created_at DESC
	`, userID)
}
