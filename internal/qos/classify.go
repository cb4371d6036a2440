package qos

import "github.com/aerolink/relay/internal/wire"

// Tier is one of the three fixed priority classes. Lower values drain first.
type Tier int

const (
	TierCritical Tier = iota
	TierImportant
	TierRoutine
	numTiers
)

func (t Tier) String() string {
	switch t {
	case TierCritical:
		return "critical"
	case TierImportant:
		return "important"
	case TierRoutine:
		return "routine"
	default:
		return "unknown"
	}
}

// Per-tier slot capacities (one slot reserved, see tierRing) and staleness
// timeouts. Fixed for the lifetime of the process.
const (
	capCritical  = 10
	capImportant = 20
	capRoutine   = 30

	timeoutCritical  = 1000 // ms
	timeoutImportant = 2000
	timeoutRoutine   = 5000
)

// Classify maps a message identifier to its tier. Command-class messages
// that change vehicle state are critical; the heartbeat and primary
// attitude/position telemetry are important; everything else is routine.
func Classify(id wire.MsgID) Tier {
	switch id {
	case wire.MsgSetMode, wire.MsgParamSet, wire.MsgMissionCount,
		wire.MsgMissionItemInt, wire.MsgCommandInt, wire.MsgCommandLong:
		return TierCritical
	case wire.MsgHeartbeat, wire.MsgGPSRawInt, wire.MsgAttitude,
		wire.MsgGlobalPositionInt:
		return TierImportant
	}
	return TierRoutine
}

// Blacklisted reports whether id is excluded from the long-range path
// entirely. These are high-rate sensor streams that would waste the
// constrained link; they are dropped before classification.
func Blacklisted(id wire.MsgID) bool {
	switch id {
	case wire.MsgRawIMU, wire.MsgScaledPressure, wire.MsgServoOutputRaw,
		wire.MsgRCChannels, wire.MsgVibration:
		return true
	}
	return false
}
