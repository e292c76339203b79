// Package loading counts in-flight requests and publishes the busy state as
// a deduplicated boolean: subscribers see the current value on subscribe and
// afterwards only genuine transitions.
package loading

import "sync"

type Counter struct {
	mu    sync.Mutex
	count int
	subs  map[int]chan bool
	next  int
}

func NewCounter() *Counter {
	return &Counter{subs: make(map[int]chan bool)}
}

// Show increments the in-flight count. The 0 -> 1 transition emits true.
func (c *Counter) Show() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if c.count == 1 {
		c.emit(true)
	}
}

// Hide decrements the in-flight count, clamped at zero so an over-release on
// a cancellation path is a no-op. The 1 -> 0 transition emits false.
func (c *Counter) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count == 0 {
		return
	}
	c.count--
	if c.count == 0 {
		c.emit(false)
	}
}

// Loading reports whether any request is in flight.
func (c *Counter) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count > 0
}

// Count returns the number of in-flight requests.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Subscribe returns a channel that carries the current value immediately and
// every transition after that. The cancel func detaches the subscriber.
// The channel is buffered; a subscriber that stops draining loses updates
// rather than blocking the counter.
func (c *Counter) Subscribe() (<-chan bool, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	ch := make(chan bool, 16)
	ch <- c.count > 0
	c.subs[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// emit fans out a transition; callers hold c.mu.
func (c *Counter) emit(v bool) {
	for _, ch := range c.subs {
		select {
		case ch <- v:
		default:
		}
	}
}
