// Package events publishes donation, claim and progression lifecycle events
// for downstream consumers such as the notification feed.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/logger"
)

const (
	DonationPublished     = "donation.published"
	DonationRejected      = "donation.rejected"
	DonationStatusChanged = "donation.status_changed"
	ClaimCreated          = "claim.created"
	ClaimCourierAssigned  = "claim.courier_assigned"
	ClaimCourierAdvanced  = "claim.courier_advanced"
	ClaimCompleted        = "claim.completed"
	ClaimCancelled        = "claim.cancelled"
	ClaimReported         = "claim.reported"
	ClaimReviewed         = "claim.reviewed"
	ActorTierChanged      = "actor.tier_changed"
	ActorBadgeAwarded     = "actor.badge_awarded"
)

// Event is the envelope written to the bus. Key is the entity ID so that all
// events of one entity land in the same partition.
type Event struct {
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	ActorID    string         `json:"actor_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func New(eventType, key, actorID string, data map[string]any) Event {
	return Event{
		Type:       eventType,
		Key:        key,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher only logs. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	logger.Infof("[EVENT] %s key=%s actor=%s", e.Type, e.Key, e.ActorID)
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
