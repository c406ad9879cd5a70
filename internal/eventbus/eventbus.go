// Package eventbus distributes kernel events, e.g. order assignments and
// withdrawals, to in-process subscribers. Subscriptions can be restricted
// to a single payload type so consumers do not type-switch.
package eventbus

import "sync"

// Event is a kernel event payload, typically one of the core/events types.
type Event interface{}

// EventBus is the publish side the dispatch engine talks to.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

type subscriber struct {
	ch    chan Event
	match func(Event) bool
}

// Bus is the default EventBus implementation using fan-out channels.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	closed bool
}

// New creates a new Bus.
func New() *Bus { return &Bus{} }

// Publish sends the event to all subscribers whose filter accepts it.
// Delivery is non-blocking; a subscriber with a full buffer misses the
// event.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if s.match != nil && !s.match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber receiving every event.
func (b *Bus) Subscribe() <-chan Event {
	return b.subscribe(nil)
}

// SubscribeMatching registers a subscriber that only receives events
// accepted by match.
func (b *Bus) SubscribeMatching(match func(Event) bool) <-chan Event {
	return b.subscribe(match)
}

func (b *Bus) subscribe(match func(Event) bool) <-chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, subscriber{ch: ch, match: match})
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(s.ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and clears the list.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	b.mu.Unlock()
}

// Typed returns a subscription delivering only events of type T, together
// with a stop function that tears it down. The returned channel closes
// when the bus closes or stop is called.
func Typed[T any](b *Bus) (<-chan T, func()) {
	raw := b.SubscribeMatching(func(e Event) bool {
		_, ok := e.(T)
		return ok
	})
	out := make(chan T, 8)
	go func() {
		defer close(out)
		for e := range raw {
			select {
			case out <- e.(T):
			default:
			}
		}
	}()
	return out, func() { b.Unsubscribe(raw) }
}
