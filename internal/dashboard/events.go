package dashboard

import (
	"sync"
	"time"

	"bybitdash/internal/metrics"
)

const eventHistory = 200

// eventStore keeps the most recent exchange events, oldest first. It is safe
// for concurrent use.
type eventStore struct {
	mu    sync.RWMutex
	items []metrics.Event
	limit int
}

func newEventStore(limit int) *eventStore {
	if limit <= 0 {
		limit = eventHistory
	}
	return &eventStore{limit: limit}
}

func (s *eventStore) handle(ev metrics.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, ev)
	if len(s.items) > s.limit {
		s.items = append([]metrics.Event(nil), s.items[len(s.items)-s.limit:]...)
	}
}

func (s *eventStore) snapshot() []metrics.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]metrics.Event, len(s.items))
	copy(out, s.items)
	return out
}

// eventView is the JSON form of an exchange event.
type eventView struct {
	Timestamp string   `json:"timestamp"`
	Kind      string   `json:"kind"`
	Endpoint  string   `json:"endpoint"`
	Value     float64  `json:"value"`
	Limit     *float64 `json:"limit,omitempty"`
	Remaining *float64 `json:"remaining,omitempty"`
}

func newEventView(ev metrics.Event) eventView {
	view := eventView{
		Timestamp: ev.Time.UTC().Format(time.RFC3339Nano),
		Kind:      string(ev.Kind),
		Endpoint:  ev.Endpoint,
		Value:     ev.Value,
	}
	if ev.Kind == metrics.EventUsedWeight {
		limit, remaining := ev.Limit, ev.Remaining
		view.Limit = &limit
		view.Remaining = &remaining
	}
	return view
}
