package ldevents

// contextKeyCache is a bounded, FIFO-eviction set of context keys used to decide whether an index
// event is still needed for a given context. Unlike the bounded per-context big-segment cache
// (which needs true LRU + TTL and is backed by hashicorp/golang-lru), this cache is fully reset on
// a fixed interval rather than aged entry-by-entry, so a plain map with FIFO overflow eviction
// is all it needs.
type contextKeyCache struct {
	capacity int
	keys     map[string]bool
	order    []string
}

func newContextKeyCache(capacity int) *contextKeyCache {
	if capacity <= 0 {
		capacity = DefaultContextKeysCapacity
	}
	return &contextKeyCache{
		capacity: capacity,
		keys:     make(map[string]bool, capacity),
		order:    make([]string, 0, capacity),
	}
}

// add records the key as seen and returns true if it was already present.
func (c *contextKeyCache) add(key string) bool {
	if c.keys[key] {
		return true
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.keys, oldest)
	}
	c.keys[key] = true
	c.order = append(c.order, key)
	return false
}

func (c *contextKeyCache) clear() {
	c.keys = make(map[string]bool, c.capacity)
	c.order = c.order[:0]
}
