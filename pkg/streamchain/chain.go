// Package streamchain implements Component D: layered decode/encode
// filters over byte sources, exposed as a uniform file-like handle whose
// lifetime is tracked independently of other Values (spec §4.D).
//
// pdfcpu's pkg/filter only ever applies a filter once, directly to a
// fully buffered stream, because pdfcpu decodes whole documents rather
// than executing a PDF content stream incrementally. This core instead
// needs to layer filters (ASCII85 over Flate over LZW, for instance) on
// top of a live, seekable, page-resident byte source and rewind/restore
// them across marking contexts, so streamchain builds new plumbing
// around the teacher's filter codecs rather than adapting an existing
// pdfcpu file.
package streamchain

import (
	"io"

	"github.com/mechiko/pdfexec/pkg/config"
	"github.com/mechiko/pdfexec/pkg/filter"
	"github.com/mechiko/pdfexec/pkg/types"
)

// Handle is one layer of a filter chain: either the bottom-most layer
// wrapping a raw io.ReadSeeker source, or a filter layered over another
// Handle. Grounded on spec §4.D's description of a stream Value as a
// "chain of filter handles over an underlying file handle".
type Handle struct {
	ID          int64
	Name        string
	Parms       types.Dict
	Rewindable  bool
	Open        bool
	CloseSource bool
	ContextID   int
	SaveLevel   int

	filt filter.Filter
	next *Handle // layer beneath this one; nil if this Handle wraps source directly

	source    io.ReadSeeker // only set when next == nil
	closeFunc func() error  // closes source, only called when CloseSource && next == nil

	reader io.Reader // lazily built decoded reader
}

// Chain is an execution context's stream list (spec §3's "open streams
// list") plus the bookkeeping the low-memory handler needs.
type Chain struct {
	Cfg *config.Configuration

	handles []*Handle
	nextID  int64

	// lastFilterSentinel separates filters created before a watermark
	// (e.g. at the start of the current page) from ones created since;
	// purge_streams only reclaims handles below it.
	lastFilterSentinel int64

	lowmemRedoStreams bool
	lowmemStreamCount int
	cachedPurgeable   int
}

// NewChain returns an empty chain using cfg for filter defaults.
func NewChain(cfg *config.Configuration) *Chain {
	return &Chain{Cfg: cfg}
}

// NewSourceHandle wraps a raw seekable byte source as the bottom of a
// chain, with no filter layered over it yet. closeFunc, if non-nil, is
// invoked when a Handle with CloseSource set and next == nil is closed.
func (c *Chain) NewSourceHandle(source io.ReadSeeker, closeFunc func() error, contextID, saveLevel int) *Handle {
	c.nextID++
	h := &Handle{
		ID:        c.nextID,
		Open:      true,
		ContextID: contextID,
		SaveLevel: saveLevel,
		source:    source,
		closeFunc: closeFunc,
	}
	c.handles = append([]*Handle{h}, c.handles...)
	return h
}

// Reader returns h's decoded byte stream, building it lazily from the
// layer beneath on first use.
func (h *Handle) Reader() (io.Reader, error) {
	if h.reader != nil {
		return h.reader, nil
	}
	if h.next == nil {
		h.reader = h.source
		return h.reader, nil
	}
	under, err := h.next.Reader()
	if err != nil {
		return nil, err
	}
	r, err := h.filt.Decode(under)
	if err != nil {
		return nil, err
	}
	h.reader = r
	return h.reader, nil
}

// SetSentinel marks the current top of the filter-id watermark used by
// purge_streams (spec §4.D: "a filter id below the last-filter
// sentinel").
func (c *Chain) SetSentinel() {
	c.lastFilterSentinel = c.nextID
}

// Handles returns the chain's current stream list, newest first.
func (c *Chain) Handles() []*Handle {
	return c.handles
}
