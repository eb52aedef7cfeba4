package objmem

import (
	"github.com/mechiko/pdfexec/pkg/perrors"
	"github.com/mechiko/pdfexec/pkg/types"
)

// StreamMarker is the narrow slice of Component C's xref cache that
// copy_value needs: marking a stream as used on the current page instead
// of deep-copying it (spec §4.A's copy_value: "the source stream is
// marked 'used on this page' in the owning execution context's cache").
// Defined here, implemented by pkg/xref, to avoid objmem importing xref.
type StreamMarker interface {
	MarkUsedOnPage(ref types.IndirectRef) error
	MarkUsedOnPageStream(sd types.StreamDict) error
}

// CopyValue deep-copies src into dst's pool (spec §4.A's copy_value). A
// nil dst models "PostScript VM" — Go's GC makes the distinction
// immaterial to where bytes live, but the nil case is kept so call sites
// matching the original's ctx_dst==nil convention still compile and read
// the same way.
//
// Simple values are returned as-is (Go's immutable value types already
// behave as a bit-copy). Arrays and dicts are copied recursively. A
// resolved stream is never deep-copied: marker.MarkUsedOnPageStream
// records it as used on this page and the StreamDict is shared unchanged.
func CopyValue(dst *Pool, src types.Object, marker StreamMarker) (types.Object, error) {
	switch o := src.(type) {
	case nil:
		return nil, nil
	case types.Array:
		out := make(types.Array, len(o))
		for i, e := range o {
			c, err := CopyValue(dst, e, marker)
			if err != nil {
				return nil, perrors.New("copy_value", perrors.VMError, "array element %d: %v", i, err)
			}
			out[i] = c
		}
		return out, nil
	case types.Dict:
		dstDict := types.NewDict(poolSaveLevel(dst))
		var copyErr error
		o.WalkSorted(func(k string, v types.Object) bool {
			c, err := CopyValue(dst, v, marker)
			if err != nil {
				copyErr = err
				return false
			}
			if err := dstDict.InsertHash(k, c, types.DictAccess); err != nil {
				copyErr = err
				return false
			}
			return true
		})
		if copyErr != nil {
			return nil, perrors.New("copy_value", perrors.VMError, "dict entry: %v", copyErr)
		}
		return dstDict, nil
	case types.IndirectRef:
		// An indirect reference is copied as-is, same as the other
		// plain-copy cases above (pdfmem.c's pdf_copyobject groups
		// OINDIRECT with OINTEGER/ONAME/etc., not with OFILE).
		return o, nil
	case types.StreamDict:
		// A resolved stream is never deep-copied; it is marked used on
		// this page instead, keyed by its own HqnCacheSlot (pdfmem.c's
		// OFILE case calls pdf_xrefexplicitaccess_stream on the stream
		// itself, not on the caller's reference to it).
		if marker != nil {
			if err := marker.MarkUsedOnPageStream(o); err != nil {
				return nil, err
			}
		}
		return o, nil
	default:
		return src.Clone(), nil
	}
}

func poolSaveLevel(p *Pool) int {
	if p == nil {
		return 0
	}
	return p.SaveLevel
}
