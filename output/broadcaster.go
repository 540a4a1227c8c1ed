package output

import (
	"sync"

	"github.com/mrsingh-rishi/voice-assistant/types"
)

// Broadcaster fans finished turns out to every subscriber.
// Publish never blocks: a subscriber whose buffer is full is dropped and
// its channel closed.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan types.Turn
	nextID int
	buffer int
	closed bool
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster{subs: make(map[int]chan types.Turn), buffer: buffer}
}

// Subscribe registers a new listener. The returned func unsubscribes it and
// is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan types.Turn, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan types.Turn, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	return ch, func() { b.remove(id) }
}

func (b *Broadcaster) Publish(turn types.Turn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- turn:
		default:
			delete(b.subs, id)
			close(ch)
		}
	}
}

// Subscribers returns how many listeners are attached.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close detaches every subscriber. Later Subscribe calls get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.closed = true
}

func (b *Broadcaster) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}
