package xref

import "github.com/mechiko/pdfexec/pkg/types"

// MarkUsedOnPage implements objmem.StreamMarker. copy_value calls this
// instead of deep-copying a stream reached through an IndirectRef, so the
// stream survives at least through the current page even though no copy
// of its bytes was made (spec §4.A: "the source stream is marked 'used on
// this page' in the owning execution context's cache").
func (t *XRefTable) MarkUsedOnPage(ref types.IndirectRef) error {
	e := t.cache.findAny(ref.ObjectNumber)
	if e == nil {
		// Not yet resident: nothing to extend the lifetime of. A
		// subsequent LookupXref will cache it at the current page id
		// anyway.
		return nil
	}
	if e.LastAccessID < 0 {
		// Already at a depth-scoped or permanent lifetime: more
		// restrictive than any page id, so marking it "used on this page"
		// must not relax it (spec §3's "only ever made more restrictive").
		return nil
	}
	t.setLastAccess(ref.ObjectNumber, t.PageID, map[int32]bool{})
	return nil
}

// MarkUsedOnPageStream is MarkUsedOnPage keyed by a resolved stream's own
// HqnCacheSlot rather than a caller-supplied IndirectRef. copy_value calls
// this for a StreamDict reached directly (already resolved, as pdfmem.c's
// OFILE case reaches it through oFile(*srcobj) rather than an indirect
// reference) — the same "used on this page" promotion, just located via
// the slot pdf_xrefexplicitaccess_stream uses instead of an objnum.
func (t *XRefTable) MarkUsedOnPageStream(sd types.StreamDict) error {
	slot, ok := hqnSlotOf(sd)
	if !ok {
		return nil
	}
	objNum := findObjNumBySlot(t, slot)
	if objNum == 0 {
		return nil
	}
	e := t.cache.findAny(objNum)
	if e == nil {
		return nil
	}
	if e.LastAccessID < 0 {
		return nil
	}
	t.setLastAccess(objNum, t.PageID, map[int32]bool{})
	return nil
}
