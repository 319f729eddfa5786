package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/storage/memory"
	"pickYourSocksAPI/internal/types/notification"
	"pickYourSocksAPI/internal/types/profile"
)

var (
	alice = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bob   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	carol = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func as(id uuid.UUID) session.Session {
	return session.Session{UserID: id}
}

type sentNotification struct {
	UserID uuid.UUID
	Type   notification.NotificationType
	Title  string
	Msg    string
	Data   map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, t notification.NotificationType, title, message string, data map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: t, Title: title, Msg: message, Data: data})
}

func (n *recordingNotifier) to(userID uuid.UUID, t notification.NotificationType) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID && s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (p *recordingPublisher) Publish(ev ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) last() ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return ChangeEvent{}
	}
	return p.events[len(p.events)-1]
}

type recordingInvalidator struct {
	mu    sync.Mutex
	users []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userIDs...)
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	events   *recordingPublisher
	radar    *recordingInvalidator
	matches  *MatchService
	results  *ResultService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	for _, p := range []struct {
		id   uuid.UUID
		name string
	}{{alice, "Alice"}, {bob, "Bob"}, {carol, "Carol"}} {
		store.PutProfile(&profile.Profile{ID: p.id, Name: p.name, Sports: []string{"tennis"}})
	}

	f := &fixture{
		store:    store,
		notifier: &recordingNotifier{},
		events:   &recordingPublisher{},
		radar:    &recordingInvalidator{},
	}
	f.matches = NewMatchService(store, store, store, f.notifier, f.events)
	f.matches.SetRadarInvalidator(f.radar)
	f.results = NewResultService(store, store, f.notifier, f.events)
	return f
}

func ptr[T any](v T) *T {
	return &v
}
