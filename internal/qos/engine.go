// Package qos implements the three-tier priority queue engine that shapes
// traffic onto the long-range radio. Tiers drain in strict precedence with
// FIFO order inside a tier; packets that outlive their tier timeout are
// evicted lazily when they reach the head.
//
// The engine is single-threaded by contract: enqueue and drain calls must
// come from one execution context (the owning scheduler loop), so there are
// no locks on the hot path and no per-packet allocation.
package qos

import (
	"time"

	"github.com/aerolink/relay/internal/link"
	"github.com/aerolink/relay/internal/wire"
)

// Stats holds the engine's monotonic counters. Drops is the legacy
// aggregate and includes blacklist drops; DropsBlacklist counts those
// separately so congestion drops and bandwidth-saving drops can be told
// apart.
type Stats struct {
	Drops          uint64
	DropsBlacklist uint64
	DropFull       [numTiers]uint64
	DropStale      [numTiers]uint64
	Sent           uint64
}

// TierMetrics is a read-only snapshot of one tier.
type TierMetrics struct {
	Depth     int
	DropFull  uint64
	DropStale uint64
}

// Metrics is a read-only snapshot of the whole engine.
type Metrics struct {
	Tiers          [3]TierMetrics
	Drops          uint64
	DropsBlacklist uint64
	Sent           uint64
}

// Engine owns the three tier rings and the long-range radio driver.
type Engine struct {
	rings [numTiers]*tierRing
	radio link.LongRange
	stats Stats
	now   func() time.Time
}

// NewEngine creates an engine draining onto radio. Tier capacities and
// timeouts are compile-time constants; they do not reconfigure at runtime.
func NewEngine(radio link.LongRange) *Engine {
	e := &Engine{
		radio: radio,
		now:   time.Now,
	}
	e.rings[TierCritical] = newTierRing(capCritical, timeoutCritical*time.Millisecond)
	e.rings[TierImportant] = newTierRing(capImportant, timeoutImportant*time.Millisecond)
	e.rings[TierRoutine] = newTierRing(capRoutine, timeoutRoutine*time.Millisecond)
	return e
}

// Enqueue classifies payload and stores it in its tier. Returns false when
// the payload is unparseable, blacklisted, oversized or its tier is full;
// in every rejection case the packet is gone and a counter records why.
func (e *Engine) Enqueue(payload []byte, dest wire.NodeID, relay bool) bool {
	id, ok := wire.ExtractMsgID(payload)
	if !ok {
		e.stats.Drops++
		return false
	}
	if Blacklisted(id) {
		e.stats.Drops++
		e.stats.DropsBlacklist++
		return false
	}
	tier := Classify(id)
	ring := e.rings[tier]
	if ring.full() {
		e.stats.Drops++
		e.stats.DropFull[tier]++
		return false
	}
	pkt, err := wire.NewPacket(payload, dest, relay)
	if err != nil {
		e.stats.Drops++
		return false
	}
	pkt.Msg = id
	now := e.now()
	pkt.Arrived = now
	ring.push(pkt, now)
	return true
}

// Process performs exactly one head operation: for the first non-empty tier
// in precedence order it either evicts a stale head packet or attempts one
// transmit. A failed transmit leaves the packet at the head for retry on
// the next call; only the tier timeout bounds how long a stuck packet
// blocks its tier.
func (e *Engine) Process() {
	e.step()
}

// DrainUpTo runs head operations until every tier is empty, a transmit
// attempt fails, or max operations have run. Returns the number of
// operations performed. This is the drain the owning loop should call once
// per tick instead of remembering to call Process N times.
func (e *Engine) DrainUpTo(max int) int {
	n := 0
	for n < max && e.step() {
		n++
	}
	return n
}

// step returns true when it removed a packet (transmitted or evicted),
// false when all tiers are empty or the head transmit did not go through.
func (e *Engine) step() bool {
	now := e.now()
	for t := TierCritical; t < numTiers; t++ {
		ring := e.rings[t]
		if ring.empty() {
			continue
		}
		if ring.stale(now) {
			ring.pop()
			e.stats.DropStale[t]++
			return true
		}
		s := ring.peek()
		if e.radio.Transmit(s.pkt.Payload()) == link.TxOK {
			ring.pop()
			e.stats.Sent++
			return true
		}
		// Head stays put; retried on the next call.
		return false
	}
	return false
}

// QueueMetrics returns a snapshot of tier depths and counters. Pure read:
// never mutates engine state, and instantaneous depths may include packets
// that are already stale but not yet evicted.
func (e *Engine) QueueMetrics() Metrics {
	m := Metrics{
		Drops:          e.stats.Drops,
		DropsBlacklist: e.stats.DropsBlacklist,
		Sent:           e.stats.Sent,
	}
	for t := TierCritical; t < numTiers; t++ {
		m.Tiers[t] = TierMetrics{
			Depth:     e.rings[t].depth(),
			DropFull:  e.stats.DropFull[t],
			DropStale: e.stats.DropStale[t],
		}
	}
	return m
}

// ResetStats zeroes every counter. Queue contents are untouched.
func (e *Engine) ResetStats() {
	e.stats = Stats{}
}

// UsableCapacities returns per-tier usable slot counts (capacity minus the
// reserved slot).
func UsableCapacities() [3]int {
	return [3]int{capCritical - 1, capImportant - 1, capRoutine - 1}
}

// TierNames returns tier display names in precedence order.
func TierNames() [3]string {
	return [3]string{
		TierCritical.String(),
		TierImportant.String(),
		TierRoutine.String(),
	}
}
