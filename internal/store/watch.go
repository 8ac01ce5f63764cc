package store

import "sync"

// broadcaster is a minimal publish/subscribe channel used to push store
// change notifications to readers. Subscribers receive an initial tick on
// subscribe so late subscribers re-read current state immediately, and
// notifications coalesce (buffered size 1) so a slow reader sees at least
// one tick per burst of mutations.
type broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan struct{})}
}

// subscribe registers a listener and returns its channel plus a cancel func
func (b *broadcaster) subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++

	ch := make(chan struct{}, 1)
	ch <- struct{}{} // deliver current state immediately

	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
	return ch, cancel
}

// notify wakes all subscribers without blocking on any of them
func (b *broadcaster) notify() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
