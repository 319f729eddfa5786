package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/types/message"
)

func (s *Store) CreateMessage(ctx context.Context, m *message.Message) (*message.Message, error) {
	out := *m
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, content, is_e2ee)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, m.SenderID, m.ReceiverID, m.Content, m.IsE2EE).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", translate(err))
	}
	return &out, nil
}

func (s *Store) ListConversation(ctx context.Context, a, b uuid.UUID, limit int) ([]*message.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, content, is_e2ee, created_at FROM (
			SELECT id, sender_id, receiver_id, content, is_e2ee, created_at
			FROM messages
			WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
			ORDER BY created_at DESC
			LIMIT $3
		) latest
		ORDER BY created_at ASC
	`, a, b, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	out := []*message.Message{}
	for rows.Next() {
		m := &message.Message{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsE2EE, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
