package memory

import (
	"context"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/notification"
)

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *n
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = notification.StatusPending
	}
	c.CreatedAt = s.tick()
	s.notifications = append(s.notifications, &c)
	out := c
	return &out, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, page, pageSize int, unreadOnly bool) ([]*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*notification.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		all = append(all, n)
	}

	out := []*notification.Notification{}
	start := (page - 1) * pageSize
	for i := start; i >= 0 && i < len(all) && i < start+pageSize; i++ {
		c := *all[i]
		out = append(out, &c)
	}
	return out, nil
}

func (s *Store) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (s *Store) SetNotificationStatus(ctx context.Context, id uuid.UUID, status notification.NotificationStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == id {
			n.Status = status
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) RegisterDevice(ctx context.Context, userID uuid.UUID, token notification.DeviceToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.devices[userID] {
		if t.Token == token.Token {
			return nil
		}
	}
	s.devices[userID] = append(s.devices[userID], token)
	return nil
}

func (s *Store) ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]notification.DeviceToken(nil), s.devices[userID]...), nil
}
