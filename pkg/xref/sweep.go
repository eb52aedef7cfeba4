package xref

import (
	"github.com/mechiko/pdfexec/pkg/streamchain"
	"go.uber.org/multierr"
)

// SweepXref is sweep_xref (spec §4.C): mark entries flushable per the
// closing/depth rules, then run a deferred flush.
//
//   - closing:        every entry.
//   - depth < 0:      every entry whose LastAccessID is >= 0 (a page id)
//     and not the current page (end-of-page sweep).
//   - depth >= 0:     every entry whose LastAccessID is negative and more
//     negative than -depth (belongs to a deeper structural walk level
//     than the one now unwinding).
func (t *XRefTable) SweepXref(closing bool, depth int) error {
	t.cache.walkAll(func(_ int, e *CacheEntry) bool {
		switch {
		case closing:
			e.flushable = true
		case depth < 0:
			if e.LastAccessID >= 0 && e.LastAccessID != t.PageID {
				e.flushable = true
			}
		default:
			if e.LastAccessID < 0 && e.LastAccessID < int64(-depth) {
				e.flushable = true
			}
		}
		return true
	})
	return t.DeferredXRefCacheFlush()
}

// SweepXrefPage marks every entry tagged with pageID flushable, skipping
// any entry for which protect returns true (SUPPLEMENTED FEATURES item
// 1: the ICC-cache protection callback — this core does not know what an
// ICC cache is, but exposes the hook the original's icc_callback used).
func (t *XRefTable) SweepXrefPage(pageID int64, protect func(objNum int32) bool) {
	t.cache.walkAll(func(_ int, e *CacheEntry) bool {
		if e.LastAccessID != pageID {
			return true
		}
		if protect != nil && protect(e.ObjNum) {
			return true
		}
		e.flushable = true
		return true
	})
}

// ResetXref sets every non-negative LastAccessID to zero, used at the end
// of a pass over a page range so entries naturally age out if unused in
// the next pass (spec §4.C: reset_xref).
func (t *XRefTable) ResetXref() {
	t.cache.walkAll(func(_ int, e *CacheEntry) bool {
		if e.LastAccessID >= 0 {
			e.LastAccessID = 0
		}
		return true
	})
}

// DeferredXRefCacheFlush walks every bucket; for each flushable entry, a
// stream closes its filter chain (the Chain handle registered under its
// HqnCacheSlot) before being freed, a plain value is simply freed (spec
// §4.C: deferred_xrefcache_flush). Re-entrant flush attempts made while
// one is already in progress are no-ops, matching the original's
// in_deferred_xrefcache_flush guard. purge_streams runs afterward to
// reclaim any streams the flush just dropped.
func (t *XRefTable) DeferredXRefCacheFlush() error {
	if t.inDeferredFlush {
		return nil
	}
	t.inDeferredFlush = true
	defer func() { t.inDeferredFlush = false }()

	var errs error
	for bi := range t.cache.buckets {
		kept := t.cache.buckets[bi][:0:0]
		for _, e := range t.cache.buckets[bi] {
			if !e.flushable {
				kept = append(kept, e)
				continue
			}
			if e.hqnSlot >= 0 && t.chain != nil {
				if h, ok := t.streamSlots[e.hqnSlot]; ok {
					if err := streamchain.CloseStream(t.chain, h); err != nil {
						errs = multierr.Append(errs, err)
					}
					delete(t.streamSlots, e.hqnSlot)
				}
			}
			t.stats.Reclaims++
		}
		t.cache.buckets[bi] = kept
	}

	if t.chain != nil {
		streamchain.PurgeStreams(t.chain)
	}

	return errs
}
