package trick

import "sync"

// Sink receives trick events as they are recognized.
type Sink interface {
	OnTrick(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// OnTrick calls f(e).
func (f SinkFunc) OnTrick(e Event) {
	f(e)
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Bus fans events out to its subscribers in the order they subscribed.
type Bus struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewBus creates a Bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe adds s to the end of the subscriber list.
func (b *Bus) Subscribe(s Sink) {
	if s == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sinks)
}

// OnTrick delivers e to every subscriber synchronously.
func (b *Bus) OnTrick(e Event) {
	b.mu.RLock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.RUnlock()

	for _, s := range sinks {
		s.OnTrick(e)
	}
}
