package memory

import (
	"context"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/types/message"
)

func (s *Store) CreateMessage(ctx context.Context, m *message.Message) (*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *m
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = s.tick()
	s.messages = append(s.messages, &c)
	out := c
	return &out, nil
}

func (s *Store) ListConversation(ctx context.Context, a, b uuid.UUID, limit int) ([]*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*message.Message{}
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			c := *m
			out = append(out, &c)
		}
	}
	// messages is append-only, so out is already oldest first.
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
