package streamchain

import "io"

// RestoreEntry is one entry of a marking context's restorefiles list
// (spec §4.D): the byte position to seek back to, and the handle it
// belongs to. Owned by pkg/exec's MarkingContext, not by Chain, since
// the list's lifetime is the marking context's, not the stream's.
type RestoreEntry struct {
	Position int64
	Handle   *Handle
}

// bottomSource walks down h's chain to the raw seekable source at the
// bottom, or nil if none of the layers wrap one (shouldn't happen for a
// live chain, but guards against a detached Handle built directly with
// no source).
func bottomSource(h *Handle) io.ReadSeeker {
	for h != nil {
		if h.next == nil {
			return h.source
		}
		h = h.next
	}
	return nil
}

// resetReaders clears every layer's cached decoded reader from h down to
// the bottom, so the next Reader() call rebuilds the filter chain from a
// freshly-seeked source (spec §4.D's "reset the filter").
func resetReaders(h *Handle) {
	for h != nil {
		h.reader = nil
		h = h.next
	}
}

// RewindStream rewinds h to byte 0 of its underlying source if h is open,
// supports positioning (wraps a seekable source somewhere beneath it) and
// is not already at EOF. On a rewind, if the current position was not
// itself 0, a RestoreEntry recording that position is returned so the
// caller's marking context can restore it later via RestoreStreams — the
// first rewind within a marking context is the one that is ultimately
// restored, so callers must only record the first RestoreEntry they get
// per handle per marking context (spec §4.D: "additional rewinds within
// the same marking context... do not overwrite the first").
func RewindStream(h *Handle) (rewound bool, entry *RestoreEntry, err error) {
	if !h.Open {
		return false, nil, nil
	}
	src := bottomSource(h)
	if src == nil {
		return false, nil, nil
	}

	pos, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, nil, err
	}

	// Probe for EOF with a single-byte peek, then put the position back
	// exactly where it was found. Whitespace is not skipped: a remaining
	// whitespace byte counts as data, so the rewind proceeds and a
	// RestoreEntry is returned for a non-zero position.
	var buf [1]byte
	n, rerr := src.Read(buf[:])
	if _, serr := src.Seek(pos, io.SeekStart); serr != nil {
		return false, nil, serr
	}
	if n == 0 {
		if rerr != nil && rerr != io.EOF {
			return false, nil, rerr
		}
		return false, nil, nil
	}

	var restore *RestoreEntry
	if pos != 0 {
		restore = &RestoreEntry{Position: pos, Handle: h}
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return false, nil, err
	}
	resetReaders(h)

	return true, restore, nil
}

// RestoreStreams consumes entries, draining the list regardless of
// outcome (spec §4.D: restore_streams). If result is true and the entry's
// handle is still open, it seeks back to the saved position; any seek
// failure flips the returned result to false but does not stop the
// drain.
func RestoreStreams(entries []*RestoreEntry, result bool) bool {
	for _, e := range entries {
		if !result || !e.Handle.Open {
			continue
		}
		src := bottomSource(e.Handle)
		if src == nil {
			continue
		}
		if _, err := src.Seek(e.Position, io.SeekStart); err != nil {
			result = false
			continue
		}
		resetReaders(e.Handle)
	}
	return result
}
