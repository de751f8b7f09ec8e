// cache.go - Set-associative cache model (L1I/L1D/L2/L3) for the V5 core

package v5core

import "fmt"

// ------------------------------------------------------------------------------
// Cache Geometry
// ------------------------------------------------------------------------------

// CacheLineSize is the fixed line width in bytes for every level.
const CacheLineSize = 64

// CacheConfig describes one cache level.
type CacheConfig struct {
	Size          int // total bytes
	Associativity int // ways per set
	LineSize      int // bytes per line
}

// Per-level defaults. Sizes follow the reference machine; way counts are
// conventional for each level.
func DefaultL1IConfig() CacheConfig {
	return CacheConfig{Size: 256 * 1024, Associativity: 4, LineSize: CacheLineSize}
}

func DefaultL1DConfig() CacheConfig {
	return CacheConfig{Size: 256 * 1024, Associativity: 4, LineSize: CacheLineSize}
}

func DefaultL2Config() CacheConfig {
	return CacheConfig{Size: 16 * 1024 * 1024, Associativity: 8, LineSize: CacheLineSize}
}

func DefaultL3Config() CacheConfig {
	return CacheConfig{Size: 512 * 1024 * 1024, Associativity: 16, LineSize: CacheLineSize}
}

// ------------------------------------------------------------------------------
// Cache
// ------------------------------------------------------------------------------

// CacheLine is one line of storage. lru is a recency counter: higher means
// more recently used within the set.
type CacheLine struct {
	Tag   uint64
	Data  [CacheLineSize]byte
	Valid bool
	Dirty bool
	lru   uint64
}

// Cache is a fixed-size associative line store for one level. It is a
// pass-through model: the owning core always consults backing memory, and
// the cache only tracks which lines would be resident. Within a set, at
// most one line is valid for a given tag.
type Cache struct {
	lines []CacheLine
	sets  int
	ways  int
	tick  uint64

	Hits   uint64
	Misses uint64
}

// maxModelSets caps the line storage actually allocated per cache. The
// outer levels are hundreds of megabytes architecturally; the model folds
// their sets onto this cap, which keeps hit/miss accounting meaningful
// without allocating the full line array per core.
const maxModelSets = 4096

// NewCache builds a cache from config. The line array is allocated up
// front; a geometry that yields no sets is a construction error.
func NewCache(cfg CacheConfig) (*Cache, error) {
	if cfg.LineSize <= 0 || cfg.Associativity <= 0 {
		return nil, fmt.Errorf("cache config %+v: %w", cfg, ErrResource)
	}
	sets := cfg.Size / (cfg.LineSize * cfg.Associativity)
	if sets <= 0 {
		return nil, fmt.Errorf("cache config %+v yields no sets: %w", cfg, ErrResource)
	}
	if sets > maxModelSets {
		sets = maxModelSets
	}
	return &Cache{
		lines: make([]CacheLine, sets*cfg.Associativity),
		sets:  sets,
		ways:  cfg.Associativity,
	}, nil
}

func (c *Cache) setFor(addr uint64) (tag uint64, base int) {
	line := addr / CacheLineSize
	set := int(line % uint64(c.sets))
	return line / uint64(c.sets), set * c.ways
}

// Lookup probes the cache for addr. On a hit the line's recency is
// refreshed. On a miss the line is filled from data (the 64-byte backing
// line), evicting the least recently used way.
func (c *Cache) Lookup(addr uint64, data []byte) bool {
	tag, base := c.setFor(addr)
	c.tick++

	victim := base
	for i := base; i < base+c.ways; i++ {
		ln := &c.lines[i]
		if ln.Valid && ln.Tag == tag {
			ln.lru = c.tick
			c.Hits++
			return true
		}
		if !ln.Valid {
			victim = i
		} else if c.lines[victim].Valid && ln.lru < c.lines[victim].lru {
			victim = i
		}
	}

	c.Misses++
	ln := &c.lines[victim]
	ln.Tag = tag
	ln.Valid = true
	ln.Dirty = false
	ln.lru = c.tick
	copy(ln.Data[:], data)
	return false
}

// Touch marks the line holding addr dirty if resident. Stores in the
// pass-through model write memory directly; dirtiness is bookkeeping only.
func (c *Cache) Touch(addr uint64) {
	tag, base := c.setFor(addr)
	for i := base; i < base+c.ways; i++ {
		ln := &c.lines[i]
		if ln.Valid && ln.Tag == tag {
			ln.Dirty = true
			return
		}
	}
}

// Invalidate drops every line.
func (c *Cache) Invalidate() {
	for i := range c.lines {
		c.lines[i] = CacheLine{}
	}
	c.tick = 0
}
