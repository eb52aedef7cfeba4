package xref

import "github.com/mechiko/pdfexec/pkg/types"

// CacheEntry is one resident xref cache slot (spec §3's "Xref Cache
// Entry"): the decoded value plus the lifetime tag that governs when the
// sweeper reclaims it.
type CacheEntry struct {
	ObjNum         int32
	Gen            uint16
	Value          types.Object
	LastAccessID   int64
	StreamDictOnly bool
	flushable      bool

	// hqnSlot is the HqnCacheSlot integer stored in a stream's dict at
	// insertion time so stream-keyed explicit operations (spec §4.C:
	// xref_explicit_access_stream, xref_this_page_only) and the
	// stream-release protocol (§4.D interaction) can find this entry
	// without a linear scan. -1 for non-stream entries.
	hqnSlot int
}

// Flushable reports whether the entry has been marked for the next
// deferred flush.
func (e *CacheEntry) Flushable() bool { return e.flushable }

// cache is the 256-bucket (by default) hash table backing XRefTable's
// objnum lookups, each bucket a move-to-front list (spec §4.C step 2:
// "Move-to-front in the bucket (LRU discipline)").
type cache struct {
	buckets [][]*CacheEntry
	size    int
}

func newCache(size int) *cache {
	if size <= 0 {
		size = 256
	}
	return &cache{buckets: make([][]*CacheEntry, size), size: size}
}

func (c *cache) bucketIndex(objNum int32) int {
	return int(uint32(objNum)) % c.size
}

// findSlot returns the bucket and in-bucket index of the entry matching
// objNum and streamDictOnly, or (-1,-1) if absent.
func (c *cache) findSlot(objNum int32, streamDictOnly bool) (bucketIdx, entryIdx int) {
	bi := c.bucketIndex(objNum)
	for i, e := range c.buckets[bi] {
		if e.ObjNum == objNum && e.StreamDictOnly == streamDictOnly {
			return bi, i
		}
	}
	return bi, -1
}

// findAny returns the first entry matching objNum regardless of
// StreamDictOnly, used by lastAccessId propagation and explicit
// operations that key off objnum alone.
func (c *cache) findAny(objNum int32) *CacheEntry {
	bi := c.bucketIndex(objNum)
	for _, e := range c.buckets[bi] {
		if e.ObjNum == objNum {
			return e
		}
	}
	return nil
}

func (c *cache) moveToFront(bucketIdx, entryIdx int) {
	b := c.buckets[bucketIdx]
	if entryIdx == 0 {
		return
	}
	e := b[entryIdx]
	copy(b[1:entryIdx+1], b[0:entryIdx])
	b[0] = e
}

func (c *cache) insertFront(bucketIdx int, e *CacheEntry) {
	c.buckets[bucketIdx] = append([]*CacheEntry{e}, c.buckets[bucketIdx]...)
}

// removeAt removes and returns the entry at entryIdx in bucketIdx.
func (c *cache) removeAt(bucketIdx, entryIdx int) *CacheEntry {
	b := c.buckets[bucketIdx]
	e := b[entryIdx]
	c.buckets[bucketIdx] = append(b[:entryIdx], b[entryIdx+1:]...)
	return e
}

// walkAll visits every resident entry across all buckets; fn returning
// false stops the walk early.
func (c *cache) walkAll(fn func(bucketIdx int, e *CacheEntry) bool) {
	for bi, b := range c.buckets {
		for _, e := range b {
			if !fn(bi, e) {
				return
			}
		}
	}
}
