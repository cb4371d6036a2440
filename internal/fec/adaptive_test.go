package fec

import "testing"

func TestController_RaisesParityFastUnderHeavyLoss(t *testing.T) {
	c := NewController(4, 2, 2, 8)
	c.OnSent(100)
	c.OnLost(15) // 15%

	if !c.Tick() {
		t.Fatal("expected parity change")
	}
	if _, r := c.Parameters(); r != 4 {
		t.Errorf("expected r=4 after heavy loss, got %d", r)
	}
}

func TestController_RaisesParitySlowlyUnderModerateLoss(t *testing.T) {
	c := NewController(4, 2, 2, 8)
	c.OnSent(100)
	c.OnLost(5) // 5%

	c.Tick()
	if _, r := c.Parameters(); r != 3 {
		t.Errorf("expected r=3 after moderate loss, got %d", r)
	}
}

func TestController_LowersParityOnCleanLink(t *testing.T) {
	c := NewController(4, 4, 2, 8)
	c.OnSent(1000)
	c.OnLost(1) // 0.1%

	c.Tick()
	if _, r := c.Parameters(); r != 3 {
		t.Errorf("expected r=3 after clean window, got %d", r)
	}
}

func TestController_HoldsInsideDeadband(t *testing.T) {
	c := NewController(4, 3, 2, 8)
	c.OnSent(100)
	c.OnLost(2) // 2%: above the lower threshold, below the upper

	if c.Tick() {
		t.Error("expected no change inside the deadband")
	}
}

func TestController_RespectsBounds(t *testing.T) {
	c := NewController(4, 8, 2, 8)
	c.OnSent(10)
	c.OnLost(5)
	c.Tick()
	if _, r := c.Parameters(); r != 8 {
		t.Errorf("r must not exceed max, got %d", r)
	}

	c = NewController(4, 2, 2, 8)
	c.OnSent(1000)
	c.Tick()
	if _, r := c.Parameters(); r != 2 {
		t.Errorf("r must not drop below min, got %d", r)
	}
}

func TestController_WindowResetsAfterTick(t *testing.T) {
	c := NewController(4, 2, 2, 8)
	c.OnSent(100)
	c.OnLost(50)
	c.Tick()

	if c.LossRate() != 0 {
		t.Errorf("expected window reset, loss rate %f", c.LossRate())
	}
}

func TestController_OnChangeCallback(t *testing.T) {
	c := NewController(4, 2, 2, 8)
	var gotK, gotR int
	var gotReason string
	c.OnChange = func(k, r int, reason string) {
		gotK, gotR, gotReason = k, r, reason
	}
	c.OnSent(100)
	c.OnLost(20)
	c.Tick()

	if gotK != 4 || gotR != 4 || gotReason != "loss>10%" {
		t.Errorf("unexpected callback values: k=%d r=%d reason=%q", gotK, gotR, gotReason)
	}
}
