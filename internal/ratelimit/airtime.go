// Package ratelimit models the long-range radio's duty-cycle allowance as
// a refilling airtime budget.
package ratelimit

import "time"

// AirtimeBudget accrues transmit airtime at dutyCycle seconds per second up
// to a burst cap. The long-range driver spends from it per transmit and
// reports busy when the budget is exhausted; there is no blocking wait,
// matching the non-blocking driver contract.
type AirtimeBudget struct {
	ratePerSec float64 // airtime seconds credited per wall second
	burst      float64 // cap, in seconds
	available  float64
	lastRefill time.Time
	now        func() time.Time
}

// NewAirtimeBudget creates a budget for the given duty cycle (e.g. 0.01 for
// the 1% ISM-band limit) and burst allowance. The budget starts full.
func NewAirtimeBudget(dutyCycle float64, burst time.Duration) *AirtimeBudget {
	b := &AirtimeBudget{
		ratePerSec: dutyCycle,
		burst:      burst.Seconds(),
		available:  burst.Seconds(),
		now:        time.Now,
	}
	b.lastRefill = b.now()
	return b
}

func (b *AirtimeBudget) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.available += elapsed * b.ratePerSec
	if b.available > b.burst {
		b.available = b.burst
	}
	b.lastRefill = now
}

// Allow spends cost airtime if available and returns true, otherwise false
// without spending anything.
func (b *AirtimeBudget) Allow(cost time.Duration) bool {
	b.refill(b.now())
	if b.available >= cost.Seconds() {
		b.available -= cost.Seconds()
		return true
	}
	return false
}

// AirtimeForPayload estimates on-air time for a payload of n bytes at a
// LoRa-class raw rate of roughly 5.5 kbit/s (SF7/125 kHz), including a
// 13-byte framing overhead. A coarse model is enough for budget shaping.
func AirtimeForPayload(n int) time.Duration {
	bits := float64(13+n) * 8
	return time.Duration(bits / 5470 * float64(time.Second))
}
