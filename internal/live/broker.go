// Package live provides in-process snapshot streams for live queries.
//
// A Broker fans whole query snapshots out to subscribers. Services publish a
// fresh, already-ordered snapshot after every successful write; subscribers
// receive it on a channel and must cancel when their consumer goes away.
// Delivery is latest-wins: a slow subscriber skips intermediate snapshots and
// always observes the most recent one.
package live

import "sync"

// Broker fans out snapshots of type T to its subscribers.
type Broker[T any] struct {
	mu   sync.Mutex
	subs map[uint64]chan T
	next uint64
}

// NewBroker returns an empty Broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[uint64]chan T)}
}

// Subscribe registers a new subscriber. The cancel func releases the
// subscription and closes the channel; calling it more than once is safe.
func (b *Broker[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers snapshot to every subscriber. A subscriber that has not
// consumed the previous snapshot gets it replaced by this one.
func (b *Broker[T]) Publish(snapshot T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot, then queue the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Broker[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Hub keys brokers by topic, for live queries scoped to one document (the
// comment list of a single event).
type Hub[T any] struct {
	mu     sync.Mutex
	topics map[string]*Broker[T]
}

// NewHub returns an empty Hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{topics: make(map[string]*Broker[T])}
}

func (h *Hub[T]) broker(topic string) *Broker[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.topics[topic]
	if !ok {
		b = NewBroker[T]()
		h.topics[topic] = b
	}
	return b
}

// Subscribe registers a subscriber on topic.
func (h *Hub[T]) Subscribe(topic string) (<-chan T, func()) {
	return h.broker(topic).Subscribe()
}

// Publish delivers snapshot to the subscribers of topic.
func (h *Hub[T]) Publish(topic string, snapshot T) {
	h.broker(topic).Publish(snapshot)
}
