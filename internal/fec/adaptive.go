package fec

// Controller adapts the parity shard count from observed transmit loss.
// The long-range driver feeds it sent/lost counts; the scheduler loop calls
// Tick periodically and rebuilds its codec when the parameters change.
type Controller struct {
	k    int
	r    int
	minR int
	maxR int

	windowSent int64
	windowLost int64

	// OnChange, when set, fires whenever Tick adjusts the parity count.
	OnChange func(k, r int, reason string)
}

// NewController starts at k data and r parity shards, keeping r within
// [minR, maxR].
func NewController(k, r, minR, maxR int) *Controller {
	if r < minR {
		r = minR
	}
	if r > maxR {
		r = maxR
	}
	return &Controller{k: k, r: r, minR: minR, maxR: maxR}
}

// OnSent records n attempted shard transmissions.
func (c *Controller) OnSent(n int64) { c.windowSent += n }

// OnLost records n shards the driver reported lost or errored.
func (c *Controller) OnLost(n int64) { c.windowLost += n }

// LossRate is the loss fraction over the current observation window.
func (c *Controller) LossRate() float64 {
	if c.windowSent == 0 {
		return 0
	}
	return float64(c.windowLost) / float64(c.windowSent)
}

// Parameters returns the current k and r.
func (c *Controller) Parameters() (k, r int) {
	return c.k, c.r
}

// Tick evaluates the window and steps the parity count: up fast under heavy
// loss, up slowly under moderate loss, down once the link is clean. The
// window resets after every evaluation. Returns true when r changed.
func (c *Controller) Tick() bool {
	loss := c.LossRate()
	c.windowSent = 0
	c.windowLost = 0

	switch {
	case loss > 0.10 && c.r+2 <= c.maxR:
		c.r += 2
		c.fire("loss>10%")
		return true
	case loss > 0.03 && c.r < c.maxR:
		c.r++
		c.fire("loss>3%")
		return true
	case loss < 0.01 && c.r > c.minR:
		c.r--
		c.fire("loss<1%")
		return true
	}
	return false
}

func (c *Controller) fire(reason string) {
	if c.OnChange != nil {
		c.OnChange(c.k, c.r, reason)
	}
}
