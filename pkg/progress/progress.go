// Package progress holds the small pieces of shared state a background
// backup or restore operation exposes to its observer: a percent-complete
// cell and a human-readable status line. Each has exactly one writer (the
// worker) and any number of polling readers.
package progress

import (
	"sync"
	"sync/atomic"
)

// Done is the sentinel stored in a Cell when the operation has finished and
// the observer should clear its indicator. It is deliberately outside the
// 0-100 percent range.
const Done = 101

// Cell is a shared percent-complete value for one long-running operation.
// The zero value is ready to use and reads as 0%.
type Cell struct {
	pct atomic.Int64
}

// Set stores the current completion percentage, clamped to 0-100.
func (c *Cell) Set(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	c.pct.Store(int64(pct))
}

// Update stores the percentage for processed entries out of total.
func (c *Cell) Update(processed, total int) {
	if total <= 0 {
		return
	}
	c.Set(processed * 100 / total)
}

// Finish marks the operation complete by storing the Done sentinel.
func (c *Cell) Finish() {
	c.pct.Store(Done)
}

// Get returns the last stored value: 0-100 while running, Done afterwards.
func (c *Cell) Get() int {
	return int(c.pct.Load())
}

// Status is a mutex-guarded status line written by a worker and read by the
// observer between polls.
type Status struct {
	mu  sync.Mutex
	msg string
}

// Set replaces the status message.
func (s *Status) Set(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
}

// Get returns the current status message.
func (s *Status) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}
