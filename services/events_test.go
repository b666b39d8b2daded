package services

import (
	"testing"
)

func TestEventBus(t *testing.T) {
	t.Run("delivers to every subscriber", func(t *testing.T) {
		bus := NewEventBus()
		a := bus.Subscribe()
		b := bus.Subscribe()
		defer bus.Unsubscribe(a)
		defer bus.Unsubscribe(b)

		bus.Publish(ProgressionEvent{Type: EventRankUp, UserID: 7})

		for _, ch := range []chan ProgressionEvent{a, b} {
			select {
			case ev := <-ch:
				if ev.UserID != 7 {
					t.Errorf("user = %d, want 7", ev.UserID)
				}
				if ev.At.IsZero() {
					t.Error("At not stamped")
				}
			default:
				t.Error("event not delivered")
			}
		}
	})

	t.Run("unsubscribe closes the channel", func(t *testing.T) {
		bus := NewEventBus()
		ch := bus.Subscribe()
		bus.Unsubscribe(ch)

		if _, ok := <-ch; ok {
			t.Error("channel still open after unsubscribe")
		}

		// Double unsubscribe must not panic
		bus.Unsubscribe(ch)
	})

	t.Run("slow subscriber drops instead of blocking", func(t *testing.T) {
		bus := NewEventBus()
		ch := bus.Subscribe()
		defer bus.Unsubscribe(ch)

		// Overfill the buffer; Publish must never block
		for i := 0; i < 100; i++ {
			bus.Publish(ProgressionEvent{Type: EventAchievementUnlocked, UserID: uint(i)})
		}

		if got := len(ch); got != cap(ch) {
			t.Errorf("buffered = %d, want full buffer %d", got, cap(ch))
		}
	})
}
