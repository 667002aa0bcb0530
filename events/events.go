// Package events is a small synchronous topic bus connecting the editor's
// subsystems. Handlers run on the publisher's goroutine, in subscription
// order.
package events

import "sync"

// Topic names an event stream.
type Topic string

const (
	ContentChanged   Topic = "content-changed"
	SelectionChanged Topic = "selection-changed"
	PointerMove      Topic = "pointer-move"
	PointerUp        Topic = "pointer-up"
)

// Event is one notification. X and Y are only set for pointer topics;
// Origin names what caused a content change (input, format, drag, media).
type Event struct {
	Topic  Topic
	X, Y   float64
	Origin string
}

type handler struct {
	id int
	fn func(Event)
}

// Bus fans events out to subscribers. It is safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[Topic][]handler
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]handler)}
}

// Subscribe registers fn for topic. The returned function removes it and
// may be called more than once.
func (b *Bus) Subscribe(topic Topic, fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[topic] = append(b.subs[topic], handler{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			hs := b.subs[topic]
			for i, h := range hs {
				if h.id == id {
					b.subs[topic] = append(hs[:i:i], hs[i+1:]...)
					break
				}
			}
			if len(b.subs[topic]) == 0 {
				delete(b.subs, topic)
			}
		})
	}
}

// Publish delivers e to the handlers subscribed to e.Topic when Publish was
// called.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	hs := append([]handler(nil), b.subs[e.Topic]...)
	b.mu.Unlock()
	for _, h := range hs {
		h.fn(e)
	}
}

// Subscribers counts the handlers on topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
