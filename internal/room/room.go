// Package room implements a keyed many-to-many message hub. Subscribers
// register under a key with an outbound mailbox; a run-loop multiplexes
// transport-inbound messages with peer signals destined for the subscriber.
package room

import "sync"

// Completion tells the run-loop whether to keep serving a subscriber.
type Completion int8

const (
	Continue Completion = iota
	Finished
)

// Transport is the duplex message channel a subscriber brings with it.
// Inbound returns a channel that delivers messages in arrival order and is
// closed when the connection ends; Send writes one outbound message.
type Transport[M any] interface {
	Inbound() <-chan M
	Send(M) error
}

// Room is a hub keyed by connection id with per-subscriber outbound
// queues. Enqueues never block the sender; each mailbox is an unbounded
// FIFO drained by the subscriber's own run-loop.
type Room[K comparable, M any] struct {
	mu   sync.RWMutex
	subs map[K]*mailbox[K, M]
}

// New creates an empty room.
func New[K comparable, M any]() *Room[K, M] {
	return &Room[K, M]{subs: make(map[K]*mailbox[K, M])}
}

// Broadcast enqueues msg to every subscriber.
func (r *Room[K, M]) Broadcast(msg M) {
	r.BroadcastTo(func(K) bool { return true }, msg)
}

// BroadcastTo enqueues msg to subscribers whose key satisfies filter.
func (r *Room[K, M]) BroadcastTo(filter func(K) bool, msg M) {
	for _, mb := range r.snapshot() {
		if filter(mb.key) {
			mb.put(msg)
		}
	}
}

// SendTo enqueues msg to one subscriber; absent keys are a no-op.
func (r *Room[K, M]) SendTo(key K, msg M) {
	r.mu.RLock()
	mb := r.subs[key]
	r.mu.RUnlock()
	if mb != nil {
		mb.put(msg)
	}
}

// Send invokes build once per subscriber and enqueues the returned message
// when build reports one. This is the projection-per-recipient path.
func (r *Room[K, M]) Send(build func(K) (M, bool)) {
	for _, mb := range r.snapshot() {
		if msg, ok := build(mb.key); ok {
			mb.put(msg)
		}
	}
}

// Len returns the current number of subscribers.
func (r *Room[K, M]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// snapshot copies the mailbox set out so enqueues happen without holding
// the subscriber-map lock.
func (r *Room[K, M]) snapshot() []*mailbox[K, M] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*mailbox[K, M], 0, len(r.subs))
	for _, mb := range r.subs {
		out = append(out, mb)
	}
	return out
}

// Enter admits a connection under key and serves it until the inbound
// stream ends or callback returns Finished. onJoin runs exactly once after
// the mailbox is registered, before any message is processed. The
// subscriber is unregistered on every exit path; the transport stays owned
// by the caller.
func (r *Room[K, M]) Enter(key K, t Transport[M], onJoin func(), callback func(M) Completion) {
	mb := newMailbox[K, M](key)

	r.mu.Lock()
	r.subs[key] = mb
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.subs, key)
		r.mu.Unlock()
	}()

	if onJoin != nil {
		onJoin()
	}

	inbound := t.Inbound()
	for {
		select {
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			if callback(msg) == Finished {
				// Flush what peers already queued before handing the
				// transport back.
				for _, out := range mb.drain() {
					if t.Send(out) != nil {
						return
					}
				}
				return
			}
		case <-mb.signal:
			for _, out := range mb.drain() {
				if t.Send(out) != nil {
					return
				}
			}
		}
	}
}

// mailbox is an unbounded FIFO with a level-triggered readiness signal.
// Producers append under the mutex and nudge the signal channel; the
// owning run-loop drains in enqueue order.
type mailbox[K comparable, M any] struct {
	key    K
	mu     sync.Mutex
	queue  []M
	signal chan struct{}
}

func newMailbox[K comparable, M any](key K) *mailbox[K, M] {
	return &mailbox[K, M]{key: key, signal: make(chan struct{}, 1)}
}

func (mb *mailbox[K, M]) put(msg M) {
	mb.mu.Lock()
	mb.queue = append(mb.queue, msg)
	mb.mu.Unlock()
	select {
	case mb.signal <- struct{}{}:
	default:
	}
}

func (mb *mailbox[K, M]) drain() []M {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := mb.queue
	mb.queue = nil
	return out
}
