package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickYourSocksAPI/internal/storage/memory"
	"pickYourSocksAPI/internal/types/notification"
)

type fakePush struct {
	mu    sync.Mutex
	calls int
	err   error
	data  map[string]any
	sent  chan struct{}
}

func newFakePush(err error) *fakePush {
	return &fakePush{err: err, sent: make(chan struct{}, 10)}
}

func (p *fakePush) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	p.mu.Lock()
	p.calls++
	p.data = data
	p.mu.Unlock()
	p.sent <- struct{}{}
	return p.err
}

func waitForStatus(t *testing.T, store *memory.Store, userID uuid.UUID, want notification.NotificationStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		items, err := store.ListNotifications(context.Background(), userID, 1, 10, false)
		return err == nil && len(items) == 1 && items[0].Status == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationService_NotifyStoresAndPushes(t *testing.T) {
	store := memory.NewStore()
	push := newFakePush(nil)
	dispatcher := NewNotificationDispatcher(store)
	dispatcher.SetPushProvider(push)
	defer dispatcher.Stop()

	svc := NewNotificationService(store)
	svc.SetDispatcher(dispatcher)
	ctx := context.Background()

	require.NoError(t, svc.RegisterDevice(ctx, as(alice), &notification.RegisterDeviceRequest{Token: "tok-1", Platform: "Android"}))
	svc.Notify(ctx, alice, notification.TypeChallengeReceived, "New challenge", "Bob challenged you", map[string]any{"match_id": "m1"})

	select {
	case <-push.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("push was never sent")
	}
	waitForStatus(t, store, alice, notification.StatusSent)

	push.mu.Lock()
	assert.Equal(t, "m1", push.data["match_id"])
	assert.Equal(t, string(notification.TypeChallengeReceived), push.data["type"])
	push.mu.Unlock()
}

func TestNotificationService_PushFailureMarksFailed(t *testing.T) {
	store := memory.NewStore()
	dispatcher := NewNotificationDispatcher(store)
	dispatcher.SetPushProvider(newFakePush(errors.New("fcm down")))
	defer dispatcher.Stop()

	svc := NewNotificationService(store)
	svc.SetDispatcher(dispatcher)
	ctx := context.Background()

	require.NoError(t, svc.RegisterDevice(ctx, as(alice), &notification.RegisterDeviceRequest{Token: "tok-1"}))
	svc.Notify(ctx, alice, notification.TypeFriendRequest, "Friend request", "Bob wants to be your friend", nil)

	waitForStatus(t, store, alice, notification.StatusFailed)
}

func TestNotificationService_NoDevicesIsStillSent(t *testing.T) {
	store := memory.NewStore()
	push := newFakePush(nil)
	dispatcher := NewNotificationDispatcher(store)
	dispatcher.SetPushProvider(push)
	defer dispatcher.Stop()

	svc := NewNotificationService(store)
	svc.SetDispatcher(dispatcher)

	svc.Notify(context.Background(), alice, notification.TypeMessageReceived, "New message", "You have a new message", nil)
	waitForStatus(t, store, alice, notification.StatusSent)

	push.mu.Lock()
	assert.Zero(t, push.calls)
	push.mu.Unlock()
}

func TestNotificationService_ListAndRead(t *testing.T) {
	store := memory.NewStore()
	svc := NewNotificationService(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.Notify(ctx, alice, notification.TypeResultClaimed, "Confirm the result", "msg", nil)
	}
	svc.Notify(ctx, bob, notification.TypeResultClaimed, "Confirm the result", "msg", nil)
	svc.Notify(ctx, uuid.Nil, notification.TypeResultClaimed, "ignored", "msg", nil)

	page, err := svc.List(ctx, as(alice), 0, 500, false)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Notifications, 3)
	assert.Equal(t, 3, page.UnreadCount)

	require.NoError(t, svc.MarkRead(ctx, as(alice), page.Notifications[0].ID))
	assert.ErrorIs(t, svc.MarkRead(ctx, as(bob), page.Notifications[1].ID), ErrNotificationMissing)

	unread, err := svc.List(ctx, as(alice), 1, 20, true)
	require.NoError(t, err)
	assert.Len(t, unread.Notifications, 2)

	n, err := svc.MarkAllRead(ctx, as(alice))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := svc.UnreadCount(ctx, as(alice))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationService_RegisterDeviceValidation(t *testing.T) {
	svc := NewNotificationService(memory.NewStore())
	ctx := context.Background()

	assert.ErrorIs(t, svc.RegisterDevice(ctx, as(alice), &notification.RegisterDeviceRequest{Token: " "}), ErrInvalidInput)
	assert.ErrorIs(t, svc.RegisterDevice(ctx, as(alice), &notification.RegisterDeviceRequest{Token: "t", Platform: "pager"}), ErrInvalidInput)
}

func TestNotificationDispatcher_StopIsIdempotent(t *testing.T) {
	d := NewNotificationDispatcher(memory.NewStore())
	d.Stop()
	d.Stop()
	assert.False(t, d.Dispatch(&notification.Notification{ID: uuid.New()}))
}

func TestNotificationDispatcher_FullQueueDoesNotBlock(t *testing.T) {
	store := memory.NewStore()
	// No workers, so nothing drains the single slot.
	d := &NotificationDispatcher{
		store:    store,
		jobQueue: make(chan *DispatchJob, 1),
		stopChan: make(chan struct{}),
	}
	ctx := context.Background()

	first, err := store.CreateNotification(ctx, &notification.Notification{UserID: alice, Type: notification.TypeFriendRequest, Title: "a", Message: "a"})
	require.NoError(t, err)
	second, err := store.CreateNotification(ctx, &notification.Notification{UserID: bob, Type: notification.TypeFriendRequest, Title: "b", Message: "b"})
	require.NoError(t, err)

	assert.True(t, d.Dispatch(first))

	start := time.Now()
	assert.False(t, d.Dispatch(second))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	items, err := store.ListNotifications(ctx, bob, 1, 10, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, notification.StatusFailed, items[0].Status)
}
