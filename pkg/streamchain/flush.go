package streamchain

// FlushStreams unconditionally clears rewindable, closes any open filter
// and frees the filter structure for every handle in c, then empties the
// stream list (spec §4.D: flush_streams).
func FlushStreams(c *Chain) error {
	var firstErr error
	for _, h := range c.handles {
		h.Rewindable = false
		if err := closeHandle(h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.handles = nil
	c.lowmemStreamCount = 0
	return firstErr
}

// closeHandle closes h's filter (if still open) and, for the bottom-most
// handle wrapping a raw source, the source itself when CloseSource is
// set.
func closeHandle(h *Handle) error {
	if !h.Open {
		return nil
	}
	h.Open = false
	if h.next == nil && h.CloseSource && h.closeFunc != nil {
		return h.closeFunc()
	}
	return nil
}

// CloseStream closes every layer of h's chain, from h down to the raw
// source, and removes each from c's stream list — the per-stream close
// spec §4.C's deferred_xrefcache_flush performs for a single flushable
// stream entry, as distinct from FlushStreams' whole-context sweep.
func CloseStream(c *Chain, h *Handle) error {
	var firstErr error
	ids := map[int64]bool{}
	for cur := h; cur != nil; cur = cur.next {
		ids[cur.ID] = true
		if err := closeHandle(cur); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	kept := c.handles[:0:0]
	for _, hh := range c.handles {
		if ids[hh.ID] {
			continue
		}
		kept = append(kept, hh)
	}
	c.handles = kept
	return firstErr
}

// PurgeStreams removes and frees every handle in c that is closed,
// non-rewindable, and was created at or before the current purge
// sentinel (spec §4.D: purge_streams — "a filter id below the
// last-filter sentinel"). Returns true if anything was freed.
func PurgeStreams(c *Chain) bool {
	freed := false
	kept := c.handles[:0:0]
	for _, h := range c.handles {
		if !h.Open && !h.Rewindable && h.ID <= c.lastFilterSentinel {
			freed = true
			continue
		}
		kept = append(kept, h)
	}
	c.handles = kept
	c.lowmemStreamCount = 0
	return freed
}

// MeasurePurgeableStreams returns the count of handles eligible for
// PurgeStreams, using a once-per-creation cache: if no filter has been
// created since the last measurement (lowmemRedoStreams is false), the
// cached count is returned unchanged; otherwise it is recounted and the
// flag cleared (spec §4.D: measure_purgeable_streams — "the proxy signal
// is 'a filter was created since last measurement'... the error on the
// conservative side is harmless").
func MeasurePurgeableStreams(c *Chain) int {
	if !c.lowmemRedoStreams {
		return c.cachedPurgeable
	}
	n := 0
	for _, h := range c.handles {
		if !h.Open && !h.Rewindable && h.ID <= c.lastFilterSentinel {
			n++
		}
	}
	c.cachedPurgeable = n
	c.lowmemRedoStreams = false
	return n
}
