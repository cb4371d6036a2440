package qos

import (
	"time"

	"github.com/aerolink/relay/internal/wire"
)

// slot holds one queued packet and its enqueue timestamp. Staleness is
// measured from enqueue, not from packet arrival.
type slot struct {
	pkt        wire.Packet
	enqueuedAt time.Time
}

// tierRing is a fixed-capacity circular buffer of packet slots. One slot is
// permanently reserved so a full ring (tail+1 == head) is distinguishable
// from an empty one (tail == head); a ring of capacity C therefore holds at
// most C-1 packets. The slot array is allocated once at construction and
// never resized.
type tierRing struct {
	slots    []slot
	capacity int
	timeout  time.Duration
	head     int // next slot to dequeue
	tail     int // next free slot
}

func newTierRing(capacity int, timeout time.Duration) *tierRing {
	return &tierRing{
		slots:    make([]slot, capacity),
		capacity: capacity,
		timeout:  timeout,
	}
}

// depth is the current occupancy.
func (r *tierRing) depth() int {
	return (r.tail - r.head + r.capacity) % r.capacity
}

func (r *tierRing) empty() bool {
	return r.head == r.tail
}

func (r *tierRing) full() bool {
	return (r.tail+1)%r.capacity == r.head
}

// push writes pkt into the tail slot. Returns false when the ring is full;
// the packet is not stored and the caller counts the drop.
func (r *tierRing) push(pkt wire.Packet, now time.Time) bool {
	if r.full() {
		return false
	}
	r.slots[r.tail] = slot{pkt: pkt, enqueuedAt: now}
	r.tail = (r.tail + 1) % r.capacity
	return true
}

// peek returns the head slot without removing it. Only valid when the ring
// is non-empty.
func (r *tierRing) peek() *slot {
	return &r.slots[r.head]
}

// pop removes the head slot. Only valid when the ring is non-empty.
func (r *tierRing) pop() {
	r.slots[r.head] = slot{}
	r.head = (r.head + 1) % r.capacity
}

// stale reports whether the head slot has outlived the tier timeout at now.
func (r *tierRing) stale(now time.Time) bool {
	return now.Sub(r.slots[r.head].enqueuedAt) > r.timeout
}
