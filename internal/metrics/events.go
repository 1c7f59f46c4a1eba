package metrics

import (
	"sort"
	"sync"
	"time"

	"bybitdash/logger"
)

// EventKind names the exchange condition an Event reports.
type EventKind string

const (
	// EventUsedWeight carries the request weight consumed in the current
	// Bybit window, derived from the limit headers.
	EventUsedWeight EventKind = "used_weight"
	// EventRateLimit marks a request rejected for exceeding the rate limit.
	EventRateLimit EventKind = "rate_limit_exceeded"
	// EventIPBan marks a request rejected because the caller's IP is banned.
	EventIPBan EventKind = "ip_ban"
)

// Event is a rate-limit observation about one Bybit endpoint.
type Event struct {
	Time     time.Time
	Kind     EventKind
	Endpoint string
	Value    float64

	// Limit and Remaining are set for EventUsedWeight only.
	Limit     float64
	Remaining float64
}

// Listener receives every Event the exchange client reports.
type Listener func(Event)

// ListenerID identifies a registered Listener. Zero is never issued.
type ListenerID uint64

type listenerSet struct {
	mu   sync.RWMutex
	next ListenerID
	byID map[ListenerID]Listener
}

var listeners = &listenerSet{byID: make(map[ListenerID]Listener)}

// AddListener subscribes fn to exchange events. A nil fn is ignored and
// yields zero.
func AddListener(fn Listener) ListenerID {
	if fn == nil {
		return 0
	}
	listeners.mu.Lock()
	defer listeners.mu.Unlock()

	listeners.next++
	listeners.byID[listeners.next] = fn
	return listeners.next
}

// RemoveListener unsubscribes the listener registered under id.
func RemoveListener(id ListenerID) {
	if id == 0 {
		return
	}
	listeners.mu.Lock()
	delete(listeners.byID, id)
	listeners.mu.Unlock()
}

// snapshot returns the listeners in registration order.
func (s *listenerSet) snapshot() []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]ListenerID, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out
}

// report stamps ev, logs it, hands it to every listener and publishes it to
// CloudWatch when configured.
func report(log *logger.Log, ev Event) {
	if log == nil {
		log = logger.GetLogger()
	}
	if ev.Time.IsZero() {
		ev.Time = timeNow()
	}

	fields := logger.Fields{
		"event":    string(ev.Kind),
		"endpoint": ev.Endpoint,
		"value":    ev.Value,
	}
	if ev.Kind == EventUsedWeight {
		fields["limit"] = ev.Limit
		fields["remaining"] = ev.Remaining
	}
	log.WithComponent("bybit_client").WithFields(fields).Debug("exchange event")

	for _, fn := range listeners.snapshot() {
		fn(ev)
	}

	publishEvent(ev)
}
