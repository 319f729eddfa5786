package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/types/notification"
)

// Notifier is the sink every service reports user-facing events to.
// Delivery is best effort; failures are logged and never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, t notification.NotificationType, title, message string, data map[string]any)
}

type NotificationService struct {
	store      NotificationStore
	dispatcher *NotificationDispatcher
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// SetDispatcher enables push delivery. Without one notifications are in-app only.
func (s *NotificationService) SetDispatcher(d *NotificationDispatcher) {
	s.dispatcher = d
}

func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, t notification.NotificationType, title, message string, data map[string]any) {
	if userID == uuid.Nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}

	// The row must survive a caller whose request context is about to end.
	n, err := s.store.CreateNotification(context.WithoutCancel(ctx), &notification.Notification{
		UserID:  userID,
		Type:    t,
		Title:   title,
		Message: message,
		Status:  notification.StatusPending,
		Data:    data,
	})
	if err != nil {
		logging.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"type":    t,
		}).WithError(err).Error("Notify: failed to store notification")
		return
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(n)
	}
}

func (s *NotificationService) List(ctx context.Context, sess session.Session, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, err := s.store.ListNotifications(ctx, sess.UserID, page, pageSize, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.store.CountUnread(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &notification.NotificationListResponse{
		Notifications: items,
		UnreadCount:   unread,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, sess session.Session) (int, error) {
	return s.store.CountUnread(ctx, sess.UserID)
}

func (s *NotificationService) MarkRead(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if err := s.store.MarkRead(ctx, id, sess.UserID); err != nil {
		return notFound(err, ErrNotificationMissing)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, sess session.Session) (int64, error) {
	return s.store.MarkAllRead(ctx, sess.UserID)
}

func (s *NotificationService) RegisterDevice(ctx context.Context, sess session.Session, req *notification.RegisterDeviceRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	switch platform {
	case "", "android", "ios", "web":
	default:
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, req.Platform)
	}

	return s.store.RegisterDevice(ctx, sess.UserID, notification.DeviceToken{Token: token, Platform: platform})
}
