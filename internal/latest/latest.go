// Package latest discards out-of-order responses: every fetch of a logical
// query takes a ticket, and only the most recently issued ticket may apply its
// result.
package latest

import "sync/atomic"

// Sequencer issues monotonically increasing tickets for one logical query
type Sequencer struct {
	seq atomic.Uint64
}

// Ticket identifies one issued request
type Ticket struct {
	s *Sequencer
	n uint64
}

// Begin issues a new ticket, superseding every earlier one
func (s *Sequencer) Begin() Ticket {
	return Ticket{s: s, n: s.seq.Add(1)}
}

// Current reports whether no newer ticket has been issued since t
func (t Ticket) Current() bool {
	return t.s != nil && t.s.seq.Load() == t.n
}

// Seq returns the ticket number, for logging
func (t Ticket) Seq() uint64 {
	return t.n
}

// Invalidate supersedes every outstanding ticket without issuing a new request
func (s *Sequencer) Invalidate() {
	s.seq.Add(1)
}
