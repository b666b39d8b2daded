// services/events.go - In-process progression event bus
package services

import (
	"sync"
	"time"
)

const (
	EventRankUp              = "rank_up"
	EventAchievementUnlocked = "achievement_unlocked"
)

// ProgressionEvent is emitted when the engine promotes a user or grants an
// achievement. Consumers (websocket feed, tests) subscribe via the bus.
type ProgressionEvent struct {
	Type     string `json:"type"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username,omitempty"`

	// rank_up
	OldRankID *uint  `json:"old_rank_id,omitempty"`
	NewRankID *uint  `json:"new_rank_id,omitempty"`
	RankName  string `json:"rank_name,omitempty"`

	// achievement_unlocked
	AchievementID   uint   `json:"achievement_id,omitempty"`
	AchievementName string `json:"achievement_name,omitempty"`

	At time.Time `json:"at"`
}

// EventBus fans progression events out to subscribers. Publish never blocks:
// a subscriber that cannot keep up loses events rather than stalling the
// engine.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan ProgressionEvent]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[chan ProgressionEvent]struct{}),
	}
}

// Subscribe registers a new subscriber channel.
func (b *EventBus) Subscribe() chan ProgressionEvent {
	ch := make(chan ProgressionEvent, 16)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *EventBus) Unsubscribe(ch chan ProgressionEvent) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber that has buffer space.
func (b *EventBus) Publish(ev ProgressionEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// subscriber buffer full, drop
		}
	}
}
