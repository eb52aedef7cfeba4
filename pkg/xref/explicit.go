package xref

import "github.com/mechiko/pdfexec/pkg/types"

// XRefExplicitPurge marks a single entry flushable regardless of its
// current lifetime tag (spec §4.C: xref_explicit_purge).
func (t *XRefTable) XRefExplicitPurge(objNum int32) {
	if e := t.cache.findAny(objNum); e != nil {
		e.flushable = true
	}
}

// XRefExplicitAccess promotes objNum's entry's lifetime: to the current
// page if permanent is false, or to PermanentAccessID (lives until the
// execution context ends) if true (spec §4.C: xref_explicit_access).
func (t *XRefTable) XRefExplicitAccess(objNum int32, permanent bool) {
	if t.cache.findAny(objNum) == nil {
		return
	}
	id := t.PageID
	if permanent {
		id = PermanentAccessID
	}
	t.setLastAccess(objNum, id, map[int32]bool{})
}

// hqnSlotOf extracts the HqnCacheSlot integer create_filter_list's load
// path stashed in a stream's dict (spec §4.C: "Stream-keyed variants
// locate the cache slot via a HqnCacheSlot integer").
func hqnSlotOf(sd types.StreamDict) (int, bool) {
	v, err := sd.ExtractHash("HqnCacheSlot")
	if err != nil || v == nil {
		return 0, false
	}
	i, ok := v.(types.Integer)
	return int(i), ok
}

// XRefExplicitAccessStream is XRefExplicitAccess keyed by the stream's
// HqnCacheSlot rather than its objnum.
func (t *XRefTable) XRefExplicitAccessStream(sd types.StreamDict, permanent bool) {
	slot, ok := hqnSlotOf(sd)
	if !ok {
		return
	}
	objNum := findObjNumBySlot(t, slot)
	if objNum == 0 {
		return
	}
	t.XRefExplicitAccess(objNum, permanent)
}

// XRefThisPageOnly forces a stream's entry to the current page id,
// bypassing any more-restrictive state it may already carry — used when
// the core knows definitively a stream will not be needed past this page
// regardless of how it got promoted earlier (spec §4.C: xref_this_page_only).
func (t *XRefTable) XRefThisPageOnly(sd types.StreamDict) {
	slot, ok := hqnSlotOf(sd)
	if !ok {
		return
	}
	objNum := findObjNumBySlot(t, slot)
	if objNum == 0 {
		return
	}
	if e := t.cache.findAny(objNum); e != nil {
		e.LastAccessID = t.PageID
	}
}

func findObjNumBySlot(t *XRefTable, slot int) int32 {
	var found int32
	t.cache.walkAll(func(_ int, e *CacheEntry) bool {
		if e.hqnSlot == slot {
			found = e.ObjNum
			return false
		}
		return true
	})
	return found
}
