// Package pathcache memoizes fallback resolution results.
//
// The cache is bounded and evicts in insertion order (FIFO): reading an
// entry never refreshes it. This is deliberately not an LRU — the
// resolver's working set is the import graph of one process, which is
// scanned roughly once, so recency tracking buys nothing over the
// simpler policy.
package pathcache

import "strings"

// DefaultCapacity bounds the cache when no explicit capacity is given.
const DefaultCapacity = 1024

// Key identifies one resolution: the tuple must match exactly for a hit
// to be valid, including the serialized conditions list.
type Key struct {
	Specifier  string
	ParentDir  string
	Conditions string
}

// ConditionsKey serializes an ordered conditions list into the form
// used by Key.Conditions. Order matters: ("import","node") and
// ("node","import") are distinct keys.
func ConditionsKey(conditions []string) string {
	return strings.Join(conditions, "\x00")
}

// Cache is a bounded Key → resolved-path table. Not safe for
// concurrent use; the loader hooks run on a single logical thread.
type Cache struct {
	capacity int
	entries  map[Key]string
	order    []Key // insertion order, oldest first
}

// New creates a cache bounded to capacity entries. A non-positive
// capacity gets DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[Key]string, capacity),
		order:    make([]Key, 0, capacity),
	}
}

// Get returns the cached path for key, if present.
func (c *Cache) Get(key Key) (string, bool) {
	path, ok := c.entries[key]
	return path, ok
}

// Set stores a resolution. Overwriting an existing key keeps its
// original insertion slot. When the bound is exceeded the
// oldest-inserted entry is evicted.
func (c *Cache) Set(key Key, path string) {
	if _, exists := c.entries[key]; exists {
		c.entries[key] = path
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = path
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return len(c.entries) }

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries = make(map[Key]string, c.capacity)
	c.order = c.order[:0]
}
