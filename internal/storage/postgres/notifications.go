package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/notification"
)

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	out := *n
	if out.Data == nil {
		out.Data = map[string]any{}
	}
	if out.Status == "" {
		out.Status = notification.StatusPending
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, message, status, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, n.UserID, n.Type, n.Title, n.Message, out.Status, out.Data).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", translate(err))
	}
	return &out, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, page, pageSize int, unreadOnly bool) ([]*notification.Notification, error) {
	offset := (page - 1) * pageSize
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, type, title, message, status, read_at IS NOT NULL, data, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR read_at IS NULL)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userID, unreadOnly, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []*notification.Notification{}
	for rows.Next() {
		n := &notification.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Status, &n.IsRead, &n.Data, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (s *Store) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) SetNotificationStatus(ctx context.Context, id uuid.UUID, status notification.NotificationStatus, reason string) error {
	var reasonArg *string
	if reason != "" {
		reasonArg = &reason
	}
	_, err := s.pool.Exec(ctx, `UPDATE notifications SET status = $2, failure_reason = $3 WHERE id = $1`, id, status, reasonArg)
	if err != nil {
		return fmt.Errorf("set notification status: %w", err)
	}
	return nil
}

func (s *Store) RegisterDevice(ctx context.Context, userID uuid.UUID, token notification.DeviceToken) error {
	platform := token.Platform
	if platform == "" {
		platform = "android"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform
	`, userID, token.Token, platform)
	if err != nil {
		return fmt.Errorf("register device: %w", translate(err))
	}
	return nil
}

func (s *Store) ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.pool.Query(ctx, `SELECT token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	defer rows.Close()

	var out []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
