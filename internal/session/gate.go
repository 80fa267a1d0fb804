// Package session guards the sink's single-writer rule.
//
// A Gate admits at most one session at a time.  It is not a lock on the
// buffer contents: it only decides who may write.  Acquiring also pins
// the owning endpoint (a usage reference) so it cannot be torn down while
// a session is open.
package session

import "sync/atomic"

// Gate is the serialisation point for opening the sink.  The zero value
// is an idle gate and is ready to use.
type Gate struct {
	active atomic.Bool
	refs   atomic.Int64
}

// TryAcquire marks the gate active and returns true if no session was
// active.  Otherwise it returns false and changes nothing.
func (g *Gate) TryAcquire() bool {
	if !g.active.CompareAndSwap(false, true) {
		return false
	}
	g.refs.Add(1)
	return true
}

// Release marks the gate idle.  Releasing an idle gate is a no-op.
func (g *Gate) Release() {
	if g.active.CompareAndSwap(true, false) {
		g.refs.Add(-1)
	}
}

// Active reports whether a session currently holds the gate.
func (g *Gate) Active() bool { return g.active.Load() }

// Refs returns the number of usage references held on the endpoint.
func (g *Gate) Refs() int64 { return g.refs.Load() }
