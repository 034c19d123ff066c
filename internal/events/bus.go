package events

// EventKind represents the type of domain event produced by the service layer.
type EventKind string

const (
	EventReportCreated EventKind = "report_created"
)

// Event carries only ids; consumers load full records from the store.
type Event struct {
	Kind     EventKind
	ReportID string
}

// Bus is a lightweight in-process pub-sub implementation backed by a buffered channel.
// It only signals; the outbox table stays the source of truth for pending work.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish attempts to enqueue the event without blocking.
// Returns true if published, false if the buffer is full.
func (b *Bus) Publish(evt Event) bool {
	if b == nil {
		return false
	}
	select {
	case b.ch <- evt:
		return true
	default:
		return false
	}
}

// Subscribe returns a read-only channel for consumers. A nil bus yields a nil
// channel, which blocks forever in a select.
func (b *Bus) Subscribe() <-chan Event {
	if b == nil {
		return nil
	}
	return b.ch
}
