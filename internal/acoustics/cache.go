package acoustics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Garsondee/Acoustic-Sense/internal/timeutil"
)

// Cell is a quantized world position. Components are whole numbers held as
// float64 so that any finite coordinate quantizes without overflow.
type Cell struct {
	X, Y, Z float64
}

// Quantize maps each axis to round(coordinate / size).
func Quantize(p r3.Vec, size float64) Cell {
	return Cell{
		X: math.Round(p.X / size),
		Y: math.Round(p.Y / size),
		Z: math.Round(p.Z / size),
	}
}

// CacheKey identifies a cached result. Keys are equal only when every
// component matches.
type CacheKey struct {
	Source   Cell
	Listener Cell
	Topology uint64
	Settings uint64
}

type cacheEntry struct {
	stamp  time.Time
	result AudioPathResult
}

// CacheStats counts cache activity since construction.
type CacheStats struct {
	Hits          uint64
	Misses        uint64
	Expired       uint64 // entries dropped lazily on read
	Overflows     uint64 // clear-all evictions on capacity breach
	Invalidations uint64
	Entries       int
}

// Cache stores results keyed by quantized endpoints, topology version and
// settings hash. Expiry is lazy; overflow clears everything. It is not safe
// for concurrent use on its own.
type Cache struct {
	entries    map[CacheKey]cacheEntry
	ttl        time.Duration
	maxEntries int
	clock      timeutil.Clock
	stats      CacheStats
}

// NewCache creates an empty cache.
func NewCache(ttl time.Duration, maxEntries int, clock timeutil.Clock) *Cache {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Cache{
		entries:    make(map[CacheKey]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
	}
}

// Configure updates TTL and capacity without touching stored entries.
func (c *Cache) Configure(ttl time.Duration, maxEntries int) {
	c.ttl = ttl
	c.maxEntries = maxEntries
}

// Get returns the cached result for key. An entry older than the TTL is
// removed and reported as a miss.
func (c *Cache) Get(key CacheKey) (AudioPathResult, bool) {
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return AudioPathResult{}, false
	}
	if c.clock.Since(e.stamp) > c.ttl {
		delete(c.entries, key)
		c.stats.Expired++
		c.stats.Misses++
		return AudioPathResult{}, false
	}
	c.stats.Hits++
	return e.result, true
}

// Put stores result under key. It reports whether the cache had to be
// cleared because it held more than maxEntries.
func (c *Cache) Put(key CacheKey, result AudioPathResult) bool {
	overflowed := false
	if len(c.entries) > c.maxEntries {
		clear(c.entries)
		c.stats.Overflows++
		overflowed = true
	}
	c.entries[key] = cacheEntry{stamp: c.clock.Now(), result: result}
	return overflowed
}

// InvalidateAll drops every entry immediately.
func (c *Cache) InvalidateAll() {
	clear(c.entries)
	c.stats.Invalidations++
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	s := c.stats
	s.Entries = len(c.entries)
	return s
}
