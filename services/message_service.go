package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/metrics"
	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/types/message"
	"pickYourSocksAPI/internal/types/notification"
)

const (
	MaxPlaintextChars   = 4000
	DefaultHistoryLimit = 200
	MaxHistoryLimit     = 500
)

type MessageService struct {
	store    MessageStore
	profiles ProfileStore
	notifier Notifier
	events   EventPublisher
}

func NewMessageService(store MessageStore, profiles ProfileStore, notifier Notifier, events EventPublisher) *MessageService {
	return &MessageService{store: store, profiles: profiles, notifier: notifier, events: events}
}

// Send stores a message from the caller. Encrypted content is opaque here; it
// only has to be well-formed base64.
func (s *MessageService) Send(ctx context.Context, sess session.Session, req *message.SendMessageRequest) (*message.Message, error) {
	receiverID, err := parseUserID(req.ReceiverID, "receiver_id")
	if err != nil {
		return nil, err
	}
	if receiverID == sess.UserID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrInvalidInput)
	}

	content := req.Content
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if req.IsE2EE {
		if _, err := base64.StdEncoding.DecodeString(content); err != nil {
			return nil, fmt.Errorf("%w: encrypted content must be base64", ErrInvalidInput)
		}
	} else if utf8.RuneCountInString(content) > MaxPlaintextChars {
		return nil, fmt.Errorf("%w: limit is %d characters", ErrMessageTooLong, MaxPlaintextChars)
	}

	if _, err := s.profiles.GetProfile(ctx, receiverID); err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}

	m, err := s.store.CreateMessage(ctx, &message.Message{
		SenderID:   sess.UserID,
		ReceiverID: receiverID,
		Content:    content,
		IsE2EE:     req.IsE2EE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	metrics.MessagesSent.WithLabelValues(strconv.FormatBool(m.IsE2EE)).Inc()
	logging.WithUser(sess.UserID.String()).WithField("receiver_id", receiverID).Debug("SendMessage: stored")

	if s.events != nil {
		s.events.Publish(ChangeEvent{
			Table:    TableMessages,
			Event:    EventInsert,
			Record:   m,
			Audience: []uuid.UUID{m.ReceiverID, m.SenderID},
		})
	}
	if s.notifier != nil {
		// Content stays off the notification so ciphertext never reaches push payloads.
		s.notifier.Notify(ctx, receiverID, notification.TypeMessageReceived, "New message",
			"You have a new message", map[string]any{"sender_id": sess.UserID.String(), "message_id": m.ID.String()})
	}
	return m, nil
}

func (s *MessageService) Conversation(ctx context.Context, sess session.Session, friendID uuid.UUID, limit int) ([]*message.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	out, err := s.store.ListConversation(ctx, sess.UserID, friendID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return out, nil
}
