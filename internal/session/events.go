package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/skypro1111/voicecapture/internal/metrics"
)

// EventKind identifies a coordinator event
type EventKind int

const (
	// EventStarted fires when recording begins and carries the new request id
	EventStarted EventKind = iota + 1
	// EventStatus carries a human-readable status line; "" clears it
	EventStatus
	// EventFinished carries recognized text for the request id
	EventFinished
	// EventError carries a failure reason
	EventError
	// EventCancelled fires when a session is cancelled
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventStatus:
		return "status_changed"
	case EventFinished:
		return "finished"
	case EventError:
		return "error"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is published to every subscriber. RequestID is empty for events that
// precede request id assignment.
type Event struct {
	Kind      EventKind
	RequestID string
	Origin    string
	Text      string // EventFinished
	Message   string // EventStatus
	Reason    string // EventError
	Time      time.Time
}

// Bus fans events out to subscribers over buffered channels. Publish never
// blocks: an event for a subscriber whose buffer is full is dropped and logged.
type Bus struct {
	subscribers map[uint64]chan Event
	nextID      uint64
	closed      bool

	logger  *slog.Logger
	metrics *metrics.Metrics

	mu sync.RWMutex
}

// NewBus creates an event bus
func NewBus(logger *slog.Logger, m *metrics.Metrics) *Bus {
	return &Bus{
		subscribers: make(map[uint64]chan Event),
		logger:      logger,
		metrics:     m,
	}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 32
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Publish delivers an event to every subscriber
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.metrics.RecordEventDropped()
			b.logger.Warn("Dropping session event for slow subscriber",
				slog.Uint64("subscriber", id),
				slog.String("event", ev.Kind.String()),
				slog.String("request_id", ev.RequestID))
		}
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Subscribers returns the number of active subscribers
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
