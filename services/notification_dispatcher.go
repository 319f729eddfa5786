package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/types/notification"
)

var ErrDispatchQueueFull = errors.New("dispatch queue full")

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher delivers stored notifications to devices from a small worker pool.
type NotificationDispatcher struct {
	store        NotificationStore
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

type DispatchJob struct {
	Notification *notification.Notification
}

func NewNotificationDispatcher(store NotificationStore) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		store:    store,
		workers:  5,
		jobQueue: make(chan *DispatchJob, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()
	return dispatcher
}

// SetPushProvider injects the FCM provider from main.go.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.Notification
	log := logging.Log.WithFields(logrus.Fields{
		"notification_id": notif.ID,
		"user_id":         notif.UserID,
		"type":            notif.Type,
	})

	tokens, err := d.store.ListDeviceTokens(ctx, notif.UserID)
	if err != nil {
		log.WithError(err).Warn("Dispatcher: failed to load device tokens")
		d.markAsFailed(ctx, notif, err)
		return
	}

	if len(tokens) > 0 && d.pushProvider != nil {
		if err := d.pushProvider.SendPush(ctx, tokens, notif.Title, notif.Message, pushData(notif)); err != nil {
			log.WithError(err).Warn("Dispatcher: push failed")
			d.markAsFailed(ctx, notif, err)
			return
		}
	} else {
		log.Debugf("Dispatcher: skipping push: tokens=%d provider=%v", len(tokens), d.pushProvider != nil)
	}

	d.markAsSent(ctx, notif)
}

func pushData(n *notification.Notification) map[string]any {
	data := map[string]any{
		"notification_id": n.ID.String(),
		"type":            string(n.Type),
	}
	for k, v := range n.Data {
		data[k] = v
	}
	return data
}

// Dispatch queues a notification for delivery without blocking the caller.
// When the queue is full the push is dropped and the row is marked failed.
func (d *NotificationDispatcher) Dispatch(notif *notification.Notification) bool {
	select {
	case <-d.stopChan:
		return false
	default:
	}

	select {
	case d.jobQueue <- &DispatchJob{Notification: notif}:
		return true
	default:
		logging.Log.WithField("notification_id", notif.ID).Warn("Dispatcher: queue full, dropping push")
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		d.markAsFailed(ctx, notif, ErrDispatchQueueFull)
		return false
	}
}

func (d *NotificationDispatcher) markAsSent(ctx context.Context, notif *notification.Notification) {
	if err := d.store.SetNotificationStatus(ctx, notif.ID, notification.StatusSent, ""); err != nil {
		logging.Log.WithError(err).WithField("notification_id", notif.ID).Warn("Dispatcher: failed to mark sent")
	}
}

func (d *NotificationDispatcher) markAsFailed(ctx context.Context, notif *notification.Notification, cause error) {
	if err := d.store.SetNotificationStatus(ctx, notif.ID, notification.StatusFailed, cause.Error()); err != nil {
		logging.Log.WithError(err).WithField("notification_id", notif.ID).Warn("Dispatcher: failed to mark failed")
	}
}

// Stop drains nothing: queued jobs that have not started are abandoned.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		logging.Log.Info("Stopping notification dispatcher...")
		close(d.stopChan)
		d.wg.Wait()
		logging.Log.Info("Notification dispatcher stopped")
	})
}
