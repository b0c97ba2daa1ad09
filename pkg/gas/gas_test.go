package gas

import "testing"

func TestAddSaturates(t *testing.T) {
	max := ^uint64(0)
	if got := Add(max, 1); got != max {
		t.Fatalf("expected saturation to %d, got %d", max, got)
	}
	if got := Add(2, 3); got != 5 {
		t.Fatalf("expected 5 got %d", got)
	}
}

func TestMulSaturates(t *testing.T) {
	max := ^uint64(0)
	if got := Mul(max, 2); got != max {
		t.Fatalf("expected saturation to %d, got %d", max, got)
	}
	if got := Mul(6, 7); got != 42 {
		t.Fatalf("expected 42 got %d", got)
	}
}

func TestPriceDeployScalesWithSize(t *testing.T) {
	small := PriceDeploy(make([]byte, 10))
	large := PriceDeploy(make([]byte, 100))
	if large <= small {
		t.Fatalf("expected larger template to price higher: small=%d large=%d", small, large)
	}
}

func TestPriceCacheComputesOnceAndReuses(t *testing.T) {
	c := NewPriceCache()
	calls := 0
	compute := func() uint64 {
		calls++
		return 99
	}
	p1 := c.EnsureFixedPrice("tmplA", "init", compute)
	p2 := c.EnsureFixedPrice("tmplA", "init", compute)
	if p1 != 99 || p2 != 99 {
		t.Fatalf("expected cached price 99, got %d %d", p1, p2)
	}
	if calls != 1 {
		t.Fatalf("expected compute to run exactly once, ran %d times", calls)
	}
}

func TestPriceCacheDistinctFunctions(t *testing.T) {
	c := NewPriceCache()
	c.Set("tmplA", "init", 10)
	c.Set("tmplA", "start", 20)
	p1, _ := c.Get("tmplA", "init")
	p2, _ := c.Get("tmplA", "start")
	if p1 != 10 || p2 != 20 {
		t.Fatalf("expected distinct prices per function, got %d %d", p1, p2)
	}
}
