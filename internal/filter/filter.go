// Package filter decides which messages are worth mirroring onto the
// constrained long-range link.
package filter

import "github.com/aerolink/relay/internal/wire"

// essentialIDs is the fixed set of message types always mirrored onto the
// long-range link: the heartbeat, primary attitude/position telemetry, the
// HUD summary, commands and their acknowledgments, battery state and
// free-text status. Fixed for the lifetime of the process.
var essentialIDs = [8]wire.MsgID{
	wire.MsgHeartbeat,
	wire.MsgAttitude,
	wire.MsgGlobalPositionInt,
	wire.MsgVFRHUD,
	wire.MsgCommandLong,
	wire.MsgCommandAck,
	wire.MsgBatteryStatus,
	wire.MsgStatusText,
}

// Filter is a stateless classifier with side-effect statistics: every
// non-essential verdict bumps the global and per-identifier filtered
// counters; essential verdicts touch nothing.
type Filter struct {
	filtered uint64
	byMsg    map[wire.MsgID]uint64
}

func New() *Filter {
	return &Filter{byMsg: make(map[wire.MsgID]uint64)}
}

// IsEssential reports whether id belongs to the essential set.
func (f *Filter) IsEssential(id wire.MsgID) bool {
	for _, e := range essentialIDs {
		if id == e {
			return true
		}
	}
	f.filtered++
	f.byMsg[id]++
	return false
}

// FilteredTotal returns the global filtered count. Pure read.
func (f *Filter) FilteredTotal() uint64 {
	return f.filtered
}

// FilteredByMsg returns the filtered count for one identifier. Pure read.
func (f *Filter) FilteredByMsg(id wire.MsgID) uint64 {
	return f.byMsg[id]
}

// ResetStats zeroes all counters. Classification results are unaffected.
func (f *Filter) ResetStats() {
	f.filtered = 0
	f.byMsg = make(map[wire.MsgID]uint64)
}
