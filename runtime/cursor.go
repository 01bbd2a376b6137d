package runtime

import "sync"

// Cursor hands out the integers 1..bound, each to exactly one caller.
// It is the only state shared between workers.
type Cursor struct {
	mu      sync.Mutex
	current uint64
	bound   uint64
}

// NewCursor creates a cursor that issues 1..bound. A bound of 0 issues nothing.
func NewCursor(bound uint64) *Cursor {
	return &Cursor{bound: bound}
}

// Next returns the next unissued integer, or 0 once the bound is passed.
//
// The counter never moves past bound, so callers polling an exhausted cursor
// cannot wrap it around when bound is close to math.MaxUint64.
func (c *Cursor) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current >= c.bound {
		return 0
	}
	c.current++
	return c.current
}

// Issued returns how many integers have been handed out so far.
func (c *Cursor) Issued() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Bound returns the inclusive upper limit of the cursor.
func (c *Cursor) Bound() uint64 {
	return c.bound
}
