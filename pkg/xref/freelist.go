package xref

// FreeListObjects walks the free-object list threaded through AddFree's
// NextFreeObjNum links and returns every object number on it
// (SUPPLEMENTED FEATURES item 4: the original uses this during
// incremental-update repair; spec.md never names the operation but does
// describe the Free entry's (next_free_objnum, gen) payload shape).
func (t *XRefTable) FreeListObjects() []int {
	if !t.haveFreeList {
		return nil
	}
	var out []int
	visited := map[int32]bool{}
	cur := t.firstFreeObjNum
	for {
		if visited[cur] {
			break // malformed cyclic free list; stop rather than loop forever
		}
		visited[cur] = true
		te, ok := t.table[cur]
		if !ok || te.Use != Free {
			break
		}
		out = append(out, int(cur))
		if te.NextFreeObjNum == 0 {
			break
		}
		cur = te.NextFreeObjNum
	}
	return out
}
