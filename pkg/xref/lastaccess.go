package xref

import "github.com/mechiko/pdfexec/pkg/types"

// setLastAccess assigns accessID to the cache entry for objNum (if
// resident) and recursively propagates the same assignment through its
// referenced indirect children, skipping the
// types.LifetimePropagationBlacklist keys inside stream dictionaries
// (spec §3: "assignment is recursive... with a specific exception for
// DataSource/Resources/HqnCacheSlot/Thresholds"). visited guards against
// cycles; depth additionally bounds pathological chains the way
// pkg/objmem bounds free_value/resolve_indirect.
func (t *XRefTable) setLastAccess(objNum int32, accessID int64, visited map[int32]bool) {
	t.setLastAccessDepth(objNum, accessID, visited, 0)
}

func (t *XRefTable) setLastAccessDepth(objNum int32, accessID int64, visited map[int32]bool, depth int) {
	if visited[objNum] || depth >= MaxPropagationDepth {
		return
	}
	visited[objNum] = true

	e := t.cache.findAny(objNum)
	if e == nil {
		return
	}
	// Allowed only if the existing id isn't already restrictive (negative)
	// or the change would make it more restrictive still — an assignment
	// must never silently relax a tag set by an earlier, more restrictive
	// call (spec §3: "only ever made more restrictive").
	if e.LastAccessID != accessID && (e.LastAccessID >= 0 || accessID < e.LastAccessID) {
		e.LastAccessID = accessID
	}
	t.propagateInto(e.Value, accessID, visited, depth+1)
}

func (t *XRefTable) propagateInto(v types.Object, accessID int64, visited map[int32]bool, depth int) {
	if depth >= MaxPropagationDepth {
		return
	}
	switch o := v.(type) {
	case types.IndirectRef:
		t.setLastAccessDepth(o.ObjectNumber, accessID, visited, depth)

	case types.Array:
		for _, elem := range o {
			t.propagateInto(elem, accessID, visited, depth+1)
		}

	case types.Dict:
		o.Walk(func(_ string, val types.Object) bool {
			t.propagateInto(val, accessID, visited, depth+1)
			return true
		})

	case types.StreamDict:
		o.Walk(func(key string, val types.Object) bool {
			if types.LifetimePropagationBlacklist[key] {
				return true
			}
			t.propagateInto(val, accessID, visited, depth+1)
			return true
		})
	}
}
