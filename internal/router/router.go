// Package router fans every outgoing packet onto the short-range link and
// mirrors the essential subset onto the long-range queue.
package router

import (
	"github.com/aerolink/relay/internal/filter"
	"github.com/aerolink/relay/internal/link"
	"github.com/aerolink/relay/internal/peer"
	"github.com/aerolink/relay/internal/qos"
	"github.com/aerolink/relay/internal/wire"
)

// Stats holds the router's monotonic counters.
type Stats struct {
	ESPNowSent   uint64 // packets accepted by the short-range driver
	LoRaSent     uint64 // packets accepted into the long-range queue
	LoRaFiltered uint64 // packets withheld from the long-range path
}

// Router is the dual-band fan-out: the short-range link absorbs full-rate
// traffic unconditionally, the long-range queue only ever sees the fixed
// essential set. The two paths are independent: a saturated long-range
// queue never slows the short-range side.
type Router struct {
	short   link.ShortRange
	engine  *qos.Engine
	filter  *filter.Filter
	tracker *peer.Tracker
	primary wire.NodeID
	stats   Stats
}

// New wires a router. primary names the peer whose reachability answers
// ESPNowAvailable.
func New(short link.ShortRange, engine *qos.Engine, f *filter.Filter, tracker *peer.Tracker, primary wire.NodeID) *Router {
	return &Router{
		short:   short,
		engine:  engine,
		filter:  f,
		tracker: tracker,
		primary: primary,
	}
}

// Send submits one outgoing packet. The short-range transport is tried
// unconditionally; the long-range queue is tried only for essential
// messages. Returns true when at least one path accepted the packet.
func (r *Router) Send(payload []byte, dest wire.NodeID) bool {
	shortOK := r.short.Send(payload)
	if shortOK {
		r.stats.ESPNowSent++
	}

	id, ok := wire.ExtractMsgID(payload)
	if !ok || !r.filter.IsEssential(id) {
		// Unparseable payloads are not guessed at: they ride the
		// short-range link but never the constrained one.
		r.stats.LoRaFiltered++
		return shortOK
	}

	longOK := r.engine.Enqueue(payload, dest, false)
	if longOK {
		r.stats.LoRaSent++
	}
	return shortOK || longOK
}

// ESPNowAvailable reports whether the primary peer is currently reachable
// on the short-range link. Pure read; freshness depends on the owning loop
// ticking the tracker.
func (r *Router) ESPNowAvailable() bool {
	return r.tracker.Reachable(r.primary)
}

// LoRaAvailable reports whether the long-range path is initialized. The
// long-range link has no liveness concept; only its queue can be observed
// as full or empty via the engine's metrics.
func (r *Router) LoRaAvailable() bool {
	return r.engine != nil
}

// Stats returns a copy of the router counters. Pure read.
func (r *Router) Stats() Stats {
	return r.stats
}

// ResetStats zeroes the router counters only; engine and filter counters
// have their own resets.
func (r *Router) ResetStats() {
	r.stats = Stats{}
}
