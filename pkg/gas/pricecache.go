package gas

import "sync"

// PriceCache is the append-only template_addr -> func_prices mapping used
// by GasMode::Fixed. Templates are immutable once deployed, so entries are
// never invalidated once populated; writers must be serialized externally
// in a concurrent host, mirroring pkg/rc's callers serializing around its
// Params methods.
type PriceCache struct {
	mu     sync.Mutex
	prices map[string]map[string]uint64
}

// NewPriceCache returns an empty cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]map[string]uint64)}
}

// Get returns the cached price for (templateAddr, fn) and whether it was
// present.
func (c *PriceCache) Get(templateAddr, fn string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	funcs, ok := c.prices[templateAddr]
	if !ok {
		return 0, false
	}
	price, ok := funcs[fn]
	return price, ok
}

// Set populates the price for (templateAddr, fn). Safe to call repeatedly
// with the same value; templates are immutable so no invalidation path
// exists.
func (c *PriceCache) Set(templateAddr, fn string, price uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	funcs, ok := c.prices[templateAddr]
	if !ok {
		funcs = make(map[string]uint64)
		c.prices[templateAddr] = funcs
	}
	funcs[fn] = price
}

// EnsureFixedPrice returns the cached price for (templateAddr, fn),
// computing and storing it via compute on first access.
func (c *PriceCache) EnsureFixedPrice(templateAddr, fn string, compute func() uint64) uint64 {
	if price, ok := c.Get(templateAddr, fn); ok {
		return price
	}
	price := compute()
	c.Set(templateAddr, fn, price)
	return price
}
