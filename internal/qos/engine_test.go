package qos

import (
	"testing"
	"time"

	"github.com/aerolink/relay/internal/link"
	"github.com/aerolink/relay/internal/wire"
)

// stubRadio is a scripted long-range driver.
type stubRadio struct {
	status link.TxStatus
	sent   [][]byte
}

func (s *stubRadio) Transmit(payload []byte) link.TxStatus {
	if s.status == link.TxOK {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		s.sent = append(s.sent, cp)
	}
	return s.status
}

func newTestEngine(status link.TxStatus) (*Engine, *stubRadio, *time.Time) {
	radio := &stubRadio{status: status}
	e := NewEngine(radio)
	now := time.Now()
	e.now = func() time.Time { return now }
	return e, radio, &now
}

func frame(id wire.MsgID) []byte {
	return wire.BuildV2(0, 1, 1, id, []byte{1, 2, 3, 4})
}

func TestEnqueue_CriticalTierFull(t *testing.T) {
	e, _, _ := newTestEngine(link.TxOK)

	accepted := 0
	for i := 0; i < 11; i++ {
		if e.Enqueue(frame(wire.MsgCommandLong), 1, false) {
			accepted++
		}
	}
	if accepted != 9 {
		t.Errorf("expected 9 accepted into capacity-10 tier, got %d", accepted)
	}
	m := e.QueueMetrics()
	if m.Tiers[TierCritical].DropFull != 2 {
		t.Errorf("expected 2 drop-full, got %d", m.Tiers[TierCritical].DropFull)
	}
	if m.Drops != 2 {
		t.Errorf("expected global drops 2, got %d", m.Drops)
	}
	if m.Tiers[TierCritical].Depth != 9 {
		t.Errorf("expected depth 9, got %d", m.Tiers[TierCritical].Depth)
	}
}

func TestProcess_StaleEviction(t *testing.T) {
	e, radio, now := newTestEngine(link.TxOK)

	if !e.Enqueue(frame(wire.MsgStatusText), 1, false) {
		t.Fatal("routine enqueue rejected")
	}
	*now = now.Add(5001 * time.Millisecond)
	e.Process()

	if len(radio.sent) != 0 {
		t.Error("stale packet must not be transmitted")
	}
	m := e.QueueMetrics()
	if m.Tiers[TierRoutine].DropStale != 1 {
		t.Errorf("expected 1 drop-stale, got %d", m.Tiers[TierRoutine].DropStale)
	}
	if m.Tiers[TierRoutine].Depth != 0 {
		t.Errorf("expected empty tier, got depth %d", m.Tiers[TierRoutine].Depth)
	}
}

func TestProcess_StaleEvictionConsumesTheCall(t *testing.T) {
	e, radio, now := newTestEngine(link.TxOK)

	e.Enqueue(frame(wire.MsgCommandLong), 1, false)
	*now = now.Add(1500 * time.Millisecond)
	e.Enqueue(frame(wire.MsgCommandLong), 1, false)

	// First call evicts the stale head and returns without transmitting.
	e.Process()
	if len(radio.sent) != 0 {
		t.Fatal("eviction call must not also transmit")
	}
	e.Process()
	if len(radio.sent) != 1 {
		t.Fatalf("expected 1 transmit on second call, got %d", len(radio.sent))
	}
}

func TestProcess_StrictPrecedence(t *testing.T) {
	e, radio, _ := newTestEngine(link.TxOK)

	e.Enqueue(frame(wire.MsgStatusText), 1, false)   // routine
	e.Enqueue(frame(wire.MsgHeartbeat), 1, false)    // important
	e.Enqueue(frame(wire.MsgCommandLong), 1, false)  // critical
	e.Enqueue(frame(wire.MsgCommandLong), 1, false)  // critical

	e.Process()
	e.Process()
	if len(radio.sent) != 2 {
		t.Fatalf("expected 2 transmits, got %d", len(radio.sent))
	}
	for i, p := range radio.sent {
		id, _ := wire.ExtractMsgID(p)
		if id != wire.MsgCommandLong {
			t.Errorf("transmit %d: critical tier must drain first, got msg %d", i, id)
		}
	}

	e.Process()
	id, _ := wire.ExtractMsgID(radio.sent[2])
	if id != wire.MsgHeartbeat {
		t.Errorf("expected important tier next, got msg %d", id)
	}
	e.Process()
	id, _ = wire.ExtractMsgID(radio.sent[3])
	if id != wire.MsgStatusText {
		t.Errorf("expected routine tier last, got msg %d", id)
	}
}

func TestProcess_FIFOWithinTier(t *testing.T) {
	e, radio, _ := newTestEngine(link.TxOK)

	bodies := []byte{10, 20, 30, 40}
	for _, b := range bodies {
		payload := wire.BuildV2(0, 1, 1, wire.MsgStatusText, []byte{b})
		if !e.Enqueue(payload, 1, false) {
			t.Fatal("enqueue rejected")
		}
	}
	for range bodies {
		e.Process()
	}
	if len(radio.sent) != len(bodies) {
		t.Fatalf("expected %d transmits, got %d", len(bodies), len(radio.sent))
	}
	for i, want := range bodies {
		got := radio.sent[i][10] // first body byte after the v2 header
		if got != want {
			t.Errorf("transmit %d: expected body %d, got %d", i, want, got)
		}
	}
}

func TestProcess_RetryOnBusyDriver(t *testing.T) {
	e, radio, _ := newTestEngine(link.TxBusy)

	e.Enqueue(frame(wire.MsgCommandLong), 1, false)
	for i := 0; i < 5; i++ {
		e.Process()
	}
	if len(radio.sent) != 0 {
		t.Fatal("busy driver must not record sends")
	}
	m := e.QueueMetrics()
	if m.Tiers[TierCritical].Depth != 1 {
		t.Errorf("packet must stay at head through retries, depth %d", m.Tiers[TierCritical].Depth)
	}

	// Driver recovers.
	radio.status = link.TxOK
	e.Process()
	if len(radio.sent) != 1 {
		t.Error("expected transmit after driver recovery")
	}
}

func TestProcess_StuckHeadEvictedByTimeout(t *testing.T) {
	e, radio, now := newTestEngine(link.TxError)

	e.Enqueue(frame(wire.MsgCommandLong), 1, false)
	e.Process()
	*now = now.Add(1001 * time.Millisecond)
	e.Process()

	m := e.QueueMetrics()
	if m.Tiers[TierCritical].DropStale != 1 {
		t.Errorf("expected stuck packet evicted by timeout, drop-stale %d", m.Tiers[TierCritical].DropStale)
	}
	if len(radio.sent) != 0 {
		t.Error("failing driver must never record sends")
	}
}

func TestEnqueue_BlacklistSplitCounters(t *testing.T) {
	e, _, _ := newTestEngine(link.TxOK)

	if e.Enqueue(frame(wire.MsgRawIMU), 1, false) {
		t.Fatal("blacklisted message must be rejected")
	}
	m := e.QueueMetrics()
	if m.Drops != 1 {
		t.Errorf("expected global drops 1, got %d", m.Drops)
	}
	if m.DropsBlacklist != 1 {
		t.Errorf("expected blacklist drops 1, got %d", m.DropsBlacklist)
	}
	for tier, tm := range m.Tiers {
		if tm.DropFull != 0 || tm.Depth != 0 {
			t.Errorf("tier %d must be untouched by blacklist drop", tier)
		}
	}
}

func TestEnqueue_UnparseablePayload(t *testing.T) {
	e, _, _ := newTestEngine(link.TxOK)

	if e.Enqueue([]byte{1, 2, 3}, 1, false) {
		t.Fatal("unparseable payload must be rejected")
	}
	m := e.QueueMetrics()
	if m.Drops != 1 || m.DropsBlacklist != 0 {
		t.Errorf("expected plain global drop, got drops %d blacklist %d", m.Drops, m.DropsBlacklist)
	}
}

func TestDrainUpTo_Bounded(t *testing.T) {
	e, radio, _ := newTestEngine(link.TxOK)

	for i := 0; i < 8; i++ {
		e.Enqueue(frame(wire.MsgStatusText), 1, false)
	}
	if n := e.DrainUpTo(3); n != 3 {
		t.Errorf("expected 3 operations, got %d", n)
	}
	if len(radio.sent) != 3 {
		t.Errorf("expected 3 transmits, got %d", len(radio.sent))
	}
	if n := e.DrainUpTo(100); n != 5 {
		t.Errorf("expected drain to stop at empty after 5, got %d", n)
	}
}

func TestDrainUpTo_StopsOnBlockedHead(t *testing.T) {
	e, _, _ := newTestEngine(link.TxBusy)

	e.Enqueue(frame(wire.MsgStatusText), 1, false)
	if n := e.DrainUpTo(100); n != 0 {
		t.Errorf("expected drain to stop immediately on blocked head, got %d", n)
	}
}

func TestQueueMetrics_Pure(t *testing.T) {
	e, _, _ := newTestEngine(link.TxOK)

	e.Enqueue(frame(wire.MsgHeartbeat), 1, false)
	before := e.QueueMetrics()
	for i := 0; i < 10; i++ {
		e.QueueMetrics()
	}
	after := e.QueueMetrics()
	if before != after {
		t.Error("QueueMetrics must not mutate state")
	}
}

func TestResetStats(t *testing.T) {
	e, _, _ := newTestEngine(link.TxOK)

	e.Enqueue(frame(wire.MsgRawIMU), 1, false)
	e.Enqueue(frame(wire.MsgHeartbeat), 1, false)
	e.Process()
	e.ResetStats()

	m := e.QueueMetrics()
	if m.Drops != 0 || m.DropsBlacklist != 0 || m.Sent != 0 {
		t.Error("expected all counters zeroed")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		id   wire.MsgID
		want Tier
	}{
		{wire.MsgCommandLong, TierCritical},
		{wire.MsgCommandInt, TierCritical},
		{wire.MsgSetMode, TierCritical},
		{wire.MsgParamSet, TierCritical},
		{wire.MsgMissionItemInt, TierCritical},
		{wire.MsgMissionCount, TierCritical},
		{wire.MsgHeartbeat, TierImportant},
		{wire.MsgAttitude, TierImportant},
		{wire.MsgGPSRawInt, TierImportant},
		{wire.MsgGlobalPositionInt, TierImportant},
		{wire.MsgStatusText, TierRoutine},
		{wire.MsgVFRHUD, TierRoutine},
		{wire.MsgID(9999), TierRoutine},
	}
	for _, c := range cases {
		if got := Classify(c.id); got != c.want {
			t.Errorf("Classify(%d): expected %s, got %s", c.id, c.want, got)
		}
	}
}
