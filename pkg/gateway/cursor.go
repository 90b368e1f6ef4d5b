package gateway

import "sync"

// Cursor tracks the highest sequence number received on a session.
// The zero value is an empty cursor ready for use.
type Cursor struct {
	mu  sync.Mutex
	seq int64
	set bool
}

// Observe records a received sequence number. Sequence numbers lower than
// the current value are ignored.
func (c *Cursor) Observe(seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.set || seq > c.seq {
		c.seq = seq
		c.set = true
	}
}

// Value returns the current sequence number and whether one was ever seen.
func (c *Cursor) Value() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.seq, c.set
}

// Reset empties the cursor.
func (c *Cursor) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq = 0
	c.set = false
}
