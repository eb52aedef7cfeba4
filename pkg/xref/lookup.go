package xref

import (
	"github.com/mechiko/pdfexec/pkg/perrors"
	"github.com/mechiko/pdfexec/pkg/streamchain"
	"github.com/mechiko/pdfexec/pkg/types"
)

// Lookup implements objmem.Resolver: resolve_indirect calls this once it
// has already pushed ref's objnum onto the execution context's
// resolution stack and confirmed it is not cyclic, so Lookup itself does
// not re-check for reentrancy (spec §4.C step 2's "push objnum onto the
// ctx's resolution stack" is already satisfied by pkg/objmem.Pool's
// resolving stack at the call site — see DESIGN.md).
func (t *XRefTable) Lookup(ref types.IndirectRef) (types.Object, error) {
	return t.LookupXref(ref.ObjectNumber, ref.GenerationNumber, false)
}

// LookupXref is lookup_xref (spec §4.C). streamDictOnly requests the
// cheap first-phase load of just a stream's dictionary, without faulting
// in its filter chain — a later full load with streamDictOnly=false
// replaces that entry.
func (t *XRefTable) LookupXref(objNum int32, gen uint16, streamDictOnly bool) (types.Object, error) {
	if err := rangeCheckObjNum("lookup_xref", objNum); err != nil {
		return nil, err
	}

	bi, ei := t.cache.findSlot(objNum, streamDictOnly)
	if ei >= 0 {
		e := t.cache.buckets[bi][ei]
		t.cache.moveToFront(bi, ei)
		t.stats.Hits++
		t.refreshLastAccess(e)
		t.maybeRewind(e)
		return e.Value, nil
	}

	// A matching objnum exists but under the other streamDictOnly phase:
	// free it (deferred if a stream) and fall through to a fresh load.
	if bi2, ei2 := t.cache.findSlotAnyPhase(objNum); ei2 >= 0 {
		e := t.cache.removeAt(bi2, ei2)
		t.freeStaleEntry(e)
		t.stats.Evictions++
	}

	t.stats.Misses++
	v, err := t.load(objNum, gen, streamDictOnly)
	if err != nil {
		return nil, err
	}

	e := &CacheEntry{ObjNum: objNum, Gen: gen, Value: v, LastAccessID: t.PageID, StreamDictOnly: streamDictOnly, hqnSlot: -1}
	if sd, ok := v.(types.StreamDict); ok {
		slot := t.registerStreamSlot(sd)
		e.hqnSlot = slot
	}
	t.cache.insertFront(t.cache.bucketIndex(objNum), e)
	t.setLastAccess(objNum, t.PageID, map[int32]bool{})
	return e.Value, nil
}

func (t *XRefTable) refreshLastAccess(e *CacheEntry) {
	if e.LastAccessID >= 0 && e.LastAccessID != t.PageID {
		t.setLastAccess(e.ObjNum, t.PageID, map[int32]bool{})
		return
	}
	if e.LastAccessID < 0 {
		// Re-assert: children may have been added with a less restrictive
		// id since this entry was last propagated.
		t.setLastAccess(e.ObjNum, e.LastAccessID, map[int32]bool{})
	}
}

func (t *XRefTable) maybeRewind(e *CacheEntry) {
	if e.hqnSlot < 0 {
		return
	}
	h, ok := t.streamSlots[e.hqnSlot]
	if !ok {
		return
	}
	_, _, _ = streamchain.RewindStream(h)
}

func (t *XRefTable) load(objNum int32, gen uint16, streamDictOnly bool) (types.Object, error) {
	te, ok := t.table[objNum]
	if !ok {
		return types.Null{}, nil // uninitialised: synthesize null
	}
	switch te.Use {
	case Free:
		return types.Null{}, nil
	case Uninitialised:
		return types.Null{}, nil
	case Used:
		if t.loader == nil {
			return nil, perrors.New("lookup_xref", perrors.UndefinedResult, "no object loader configured")
		}
		v, err := t.loader.LoadAt(te.Offset)
		if err != nil {
			return nil, err
		}
		if streamDictOnly {
			if sd, ok := v.(types.StreamDict); ok {
				return sd.Dict, nil
			}
		}
		return v, nil
	case Compressed:
		if t.loader == nil {
			return nil, perrors.New("lookup_xref", perrors.UndefinedResult, "no object loader configured")
		}
		return t.loader.LoadFromObjectStream(te.StreamObjNum, te.StreamIndex)
	default:
		return nil, perrors.New("lookup_xref", perrors.UndefinedResult, "object %d has unknown use state", objNum)
	}
}

func (t *XRefTable) registerStreamSlot(sd types.StreamDict) int {
	slot := t.nextStreamSlot
	t.nextStreamSlot++
	_ = sd.InsertHash("HqnCacheSlot", types.Integer(slot), types.DictAccess)
	return slot
}

// findSlotAnyPhase mirrors cache.findSlot but ignores streamDictOnly,
// used to detect "same objnum, other phase" per spec §4.C step 3.
func (c *cache) findSlotAnyPhase(objNum int32) (bucketIdx, entryIdx int) {
	bi := c.bucketIndex(objNum)
	for i, e := range c.buckets[bi] {
		if e.ObjNum == objNum {
			return bi, i
		}
	}
	return bi, -1
}

func (t *XRefTable) freeStaleEntry(e *CacheEntry) {
	if _, ok := e.Value.(types.StreamDict); ok {
		e.flushable = true
		return
	}
	e.Value = types.Null{}
}
