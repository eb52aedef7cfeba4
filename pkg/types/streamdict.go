package types

// LifetimePropagationBlacklist names the stream dict keys that must never
// be recursively followed during resolve_indirect (Component A) or
// lastAccessId propagation (Component C) — both to avoid a self-reference
// back to the owning stream and to skip resources reached through a
// separate mechanism. Both call sites share this one list so they cannot
// drift out of sync (spec's SUPPLEMENTED FEATURES item 3).
var LifetimePropagationBlacklist = map[string]bool{
	"DataSource":   true,
	"Resources":    true,
	"HqnCacheSlot": true,
	"Thresholds":   true,
}

// PDFFilter represents one stage of a stream's filter pipeline: a filter
// name plus its decode parameters, grounded on pdfcpu's types.PDFFilter.
type PDFFilter struct {
	Name        string
	DecodeParms Dict
}

// StreamDict represents a PDF stream object: a Dict plus the encoded
// filter pipeline describing how to get from raw bytes to decoded
// content (Component D, spec §4.D). Grounded on pdfcpu's
// types.StreamDict, trimmed to the fields the execution core's filter
// chain and xref cache actually consult — rendering-only fields
// (CSComponents, DCTImage, IsPageContent) are dropped since nothing in
// this core paints pixels.
type StreamDict struct {
	Dict
	StreamOffset   int64
	StreamLength   *int64
	FilterPipeline []PDFFilter

	// flushable marks the stream release state from spec §3's lifecycle
	// invariant: "releasing a stream reference does not free
	// immediately; the stream is marked flushable and collected by a
	// later deferred flush." free_value (pkg/objmem) sets this instead
	// of freeing. A pointer, not a bool, because StreamDict is handed
	// around by value (as every Object is) but the flushable bit must be
	// shared by every copy pointing at the same underlying stream — the
	// same reason Dict's entries live behind a map rather than inline.
	flushable *bool
}

// NewStreamDict creates a new StreamDict wrapping d.
func NewStreamDict(d Dict, streamOffset int64, streamLength *int64, pipeline []PDFFilter) StreamDict {
	f := false
	return StreamDict{Dict: d, StreamOffset: streamOffset, StreamLength: streamLength, FilterPipeline: pipeline, flushable: &f}
}

// MarkFlushable flags sd's underlying stream as flushable. Every copy of
// sd sharing the same flushable pointer observes this immediately,
// including the canonical copy held by the xref cache.
func (sd StreamDict) MarkFlushable() {
	if sd.flushable != nil {
		*sd.flushable = true
	}
}

// Flushable reports whether the stream has been marked flushable.
func (sd StreamDict) Flushable() bool {
	return sd.flushable != nil && *sd.flushable
}

// HasSoleFilterNamed returns true if sd's pipeline has exactly one stage
// named filterName.
func (sd StreamDict) HasSoleFilterNamed(filterName string) bool {
	return len(sd.FilterPipeline) == 1 && sd.FilterPipeline[0].Name == filterName
}

// Clone deep-copies sd's dict and pipeline. Per spec §4.A, copy_value does
// NOT deep-copy streams in the general path — this Clone exists for
// completeness (e.g. cloning a detached StreamDict template) and is not
// what resolve_indirect/copy_value call for a live stream reference.
func (sd StreamDict) Clone() Object {
	sd1 := sd
	sd1.Dict = sd.Dict.Clone().(Dict)
	pl := make([]PDFFilter, len(sd.FilterPipeline))
	for i, f := range sd.FilterPipeline {
		f1 := PDFFilter{Name: f.Name}
		if f.DecodeParms.Len() > 0 {
			f1.DecodeParms = f.DecodeParms.Clone().(Dict)
		}
		pl[i] = f1
	}
	sd1.FilterPipeline = pl
	freshFlushable := false
	sd1.flushable = &freshFlushable
	return sd1
}

func (sd StreamDict) String() string {
	return sd.Dict.String() + " stream"
}

func (sd StreamDict) PDFString() string {
	return sd.Dict.PDFString() + "\nstream\n...\nendstream"
}
