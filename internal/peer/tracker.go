// Package peer tracks remote-node liveness on the short-range link from
// the recency of received packets.
package peer

import (
	"time"

	"github.com/aerolink/relay/internal/wire"
)

// ReachableTimeout is how long a node stays reachable after its last
// received packet.
const ReachableTimeout = 3000 * time.Millisecond

type nodeState struct {
	reachable bool
	lastRx    time.Time
}

// Tracker is a timeout-based liveness state machine, one state per remote
// node. Nodes start unreachable; Observe flips them reachable; Check flips
// them back once ReachableTimeout elapses without traffic. Reachable is a
// pure read and never evaluates the timeout itself; the owning loop must
// call Check every tick or the state goes stale.
type Tracker struct {
	nodes map[wire.NodeID]*nodeState
	now   func() time.Time

	// OnChange, when set, fires on every state transition.
	OnChange func(node wire.NodeID, reachable bool)
}

func NewTracker() *Tracker {
	return &Tracker{
		nodes: make(map[wire.NodeID]*nodeState),
		now:   time.Now,
	}
}

// Observe records a received packet from node, transitioning it to
// reachable. Called from the receive path.
func (t *Tracker) Observe(node wire.NodeID) {
	s, ok := t.nodes[node]
	if !ok {
		s = &nodeState{}
		t.nodes[node] = s
	}
	s.lastRx = t.now()
	if !s.reachable {
		s.reachable = true
		if t.OnChange != nil {
			t.OnChange(node, true)
		}
	}
}

// Check evaluates the timeout for every tracked node. Must be invoked once
// per scheduling tick.
func (t *Tracker) Check() {
	now := t.now()
	for node, s := range t.nodes {
		if s.reachable && now.Sub(s.lastRx) > ReachableTimeout {
			s.reachable = false
			if t.OnChange != nil {
				t.OnChange(node, false)
			}
		}
	}
}

// Reachable reports the current liveness state of node. Pure read.
func (t *Tracker) Reachable(node wire.NodeID) bool {
	s, ok := t.nodes[node]
	return ok && s.reachable
}

// LastSeen returns the last-received timestamp for node, zero if never
// observed. Pure read.
func (t *Tracker) LastSeen(node wire.NodeID) time.Time {
	if s, ok := t.nodes[node]; ok {
		return s.lastRx
	}
	return time.Time{}
}
