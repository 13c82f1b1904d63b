package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"momentumAPI/internal/store"
	"momentumAPI/internal/types/activity"
	"momentumAPI/internal/types/event"
)

type PushProvider interface {
	SendPush(ctx context.Context, token, title, body string, data map[string]string) error
}

// EventDispatcher is the fire-and-forget sink for domain events. Events are
// queued and handled by a small worker pool: each one becomes an activity
// feed row and, when the user has a device token, a push notification.
// Publishing never blocks the caller; a full queue drops the event.
type EventDispatcher struct {
	store        store.Store
	pushProvider PushProvider
	workers      int
	jobQueue     chan event.Event
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

func NewEventDispatcher(st store.Store) *EventDispatcher {
	d := &EventDispatcher{
		store:    st,
		workers:  5,
		jobQueue: make(chan event.Event, 100),
		stopChan: make(chan struct{}),
	}
	d.startWorkers()
	return d
}

// SetPushProvider injects the real FCM provider from main.go.
func (d *EventDispatcher) SetPushProvider(provider PushProvider) {
	d.pushProvider = provider
}

func (d *EventDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *EventDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case e := <-d.jobQueue:
			d.processEvent(e)
		case <-d.stopChan:
			return
		}
	}
}

func (d *EventDispatcher) Publish(e event.Event) {
	select {
	case d.jobQueue <- e:
	default:
		log.Printf("Event queue full, dropping %s for user %s", e.Type, e.UserID)
	}
}

func (d *EventDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

func (d *EventDispatcher) processEvent(e event.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var description, iconName, pushTitle, pushBody string
	switch e.Type {
	case event.TypeDailyCompletionRecorded:
		description = fmt.Sprintf("%s completed a day of %s", e.Username, e.ChallengeTitle)
		iconName = "checkmark.circle"
		pushTitle = "Day complete!"
		pushBody = fmt.Sprintf("%s is done. Streak: %d days.", e.ChallengeTitle, e.CurrentStreak)
	case event.TypeChallengeCompleted:
		description = fmt.Sprintf("%s completed the challenge %s", e.Username, e.ChallengeTitle)
		iconName = "trophy"
		pushTitle = "Challenge complete!"
		pushBody = fmt.Sprintf("You finished %s.", e.ChallengeTitle)
	default:
		log.Printf("Unknown event type %q, dropping", e.Type)
		return
	}

	a := &activity.Activity{
		ID:          uuid.New(),
		UserID:      e.UserID,
		Username:    e.Username,
		Description: description,
		IconName:    iconName,
		CreatedAt:   time.Now(),
	}
	if err := d.store.InsertActivity(ctx, a); err != nil {
		log.Printf("Failed to record activity for %s: %v", e.UserID, err)
	}

	if d.pushProvider == nil {
		return
	}
	user, err := d.store.GetUserByID(ctx, e.UserID)
	if err != nil || user.DeviceToken == "" {
		return
	}
	data := map[string]string{
		"type":         string(e.Type),
		"challenge_id": e.ChallengeID.String(),
	}
	if err := d.pushProvider.SendPush(ctx, user.DeviceToken, pushTitle, pushBody, data); err != nil {
		log.Printf("Push failed for user %s: %v", e.UserID, err)
	}
}
