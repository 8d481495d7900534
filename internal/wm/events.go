package wm

import "sync"

// Op names a store operation.
type Op string

const (
	OpOpen     Op = "open"
	OpClose    Op = "close"
	OpMinimize Op = "minimize"
	OpMaximize Op = "maximize"
	OpRestore  Op = "restore"
	OpFocus    Op = "focus"
	OpMove     Op = "move"
	OpResize   Op = "resize"
)

// Ops lists every operation in a stable order.
var Ops = []Op{OpOpen, OpClose, OpMinimize, OpMaximize, OpRestore, OpFocus, OpMove, OpResize}

// Valid reports whether op is a known operation.
func (op Op) Valid() bool {
	for _, known := range Ops {
		if op == known {
			return true
		}
	}
	return false
}

// Event is published after every applied operation. Windows is the complete
// list after the operation and must be treated as read-only.
type Event struct {
	Seq       uint64   `json:"seq"`
	Op        Op       `json:"op"`
	WindowID  string   `json:"window_id"`
	Windows   []Window `json:"windows"`
	TopZIndex int      `json:"top_z_index"`
}

// Snapshot returns the event's state as a Snapshot.
func (e Event) Snapshot() Snapshot {
	return Snapshot{Windows: e.Windows, TopZIndex: e.TopZIndex}
}

// DefaultEventBuffer is the subscription buffer used when none is given.
const DefaultEventBuffer = 64

// Subscription receives store events on C until closed.
type Subscription struct {
	C <-chan Event

	ch     chan Event
	store  *Store
	id     uint64
	mu     sync.Mutex
	closed bool
	drops  uint64
}

// Subscribe registers a new observer. Events are delivered in order without
// blocking the store; when the buffer is full the oldest pending event is
// discarded, since every event carries the full window list.
func (s *Store) Subscribe(buffer int) *Subscription {
	sub, _ := s.SubscribeSnapshot(buffer)
	return sub
}

// SubscribeSnapshot registers an observer and returns the state it starts
// from. The first event on C is the first operation after that snapshot.
func (s *Store) SubscribeSnapshot(buffer int) (*Subscription, Snapshot) {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	ch := make(chan Event, buffer)
	sub := &Subscription{C: ch, ch: ch, store: s}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subID++
	sub.id = s.subID
	s.subs[sub.id] = sub
	return sub, s.snapshotLocked()
}

// Subscribers returns the number of live subscriptions.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close unregisters the subscription and closes C. Safe to call twice.
func (sub *Subscription) Close() {
	sub.store.mu.Lock()
	delete(sub.store.subs, sub.id)
	sub.store.mu.Unlock()

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// Dropped returns how many events were discarded for this subscriber.
func (sub *Subscription) Dropped() uint64 {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.drops
}

// deliver is called with the store lock held.
func (sub *Subscription) deliver(ev Event) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	for {
		select {
		case sub.ch <- ev:
			return
		default:
		}
		select {
		case <-sub.ch:
			sub.drops++
		default:
		}
	}
}
