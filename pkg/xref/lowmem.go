package xref

import "github.com/mechiko/pdfexec/pkg/streamchain"

// OfferCost is the original's fixed low-memory offer cost: reclaiming
// via this handler means re-reading from disk later, priced at a flat
// 2.0 regardless of how much is actually offered (spec §4.C's low-memory
// handler).
const OfferCost = 2.0

// MeasureSweepable returns the number of cache entries eligible for an
// end-of-page sweep (spec's SUPPLEMENTED FEATURES item 5 caching rule,
// shared with MeasurePurgeableStreams in pkg/streamchain): recomputed at
// most once per page, then cached until SetPageID advances the page.
func (t *XRefTable) MeasureSweepable() int {
	if t.sweepableValid {
		return t.sweepableCount
	}
	n := 0
	t.cache.walkAll(func(_ int, e *CacheEntry) bool {
		if e.LastAccessID >= 0 && e.LastAccessID != t.PageID {
			n++
		}
		return true
	})
	t.sweepableCount = n
	t.sweepableValid = true
	return n
}

// Release sweeps entries from previous pages, then purges closed,
// non-reusable streams, until at least want units have been reclaimed or
// no further reclamation is possible, returning the number of units
// actually freed. This core has no per-Value byte-size accounting (Go's
// allocator owns that, unlike the original's block-counted pool), so a
// "unit" here is one cache entry or one purged stream handle rather than
// a byte count — an Open Question decision recorded in DESIGN.md.
func (t *XRefTable) Release(want int) (int, error) {
	freed := 0

	if sweepable := t.MeasureSweepable(); sweepable > 0 {
		before := t.stats.Reclaims
		if err := t.SweepXref(false, -1); err != nil {
			return freed, err
		}
		freed += int(t.stats.Reclaims - before)
	}

	if freed < want && t.chain != nil {
		purgeable := streamchain.MeasurePurgeableStreams(t.chain)
		if streamchain.PurgeStreams(t.chain) {
			freed += purgeable
		}
	}

	return freed, nil
}
