package testhelpers

import (
	"context"
	"sync"

	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
)

// RecordingNotifier keeps every event it is handed.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []services.Event
}

func (n *RecordingNotifier) Notify(ctx context.Context, ev services.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *RecordingNotifier) Events() []services.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]services.Event(nil), n.events...)
}

// Named returns the recorded events with the given name, in order.
func (n *RecordingNotifier) Named(name string) []services.Event {
	var out []services.Event
	for _, ev := range n.Events() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}
