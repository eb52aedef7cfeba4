// Package objmem implements Component A: allocation, deep-copy, deep-free
// and indirect-reference resolution of Values from an execution context's
// pools (spec §4.A).
//
// pdfcpu has no allocator of its own — Go's garbage collector already
// does what create_dict/free_value exist to do in the original C core —
// so this package is grounded directly in spec §4.A and in
// original_source's pdfmem.c (PDF_DESTROY_DICTIONARY,
// dictwalk_destroy_dictionary, pdf_copyobj_dwfparams), expressed using
// the teacher's idiom: github.com/pkg/errors wrapping, perrors kinds for
// the abstract failure categories, and a struct-plus-methods shape
// mirroring how pdfcpu's model.Context groups per-document state.
package objmem

import (
	"github.com/mechiko/pdfexec/pkg/perrors"
)

// Pool stands in for an execution context's object memory pool. Go's
// garbage collector retires the original's slot-block bookkeeping; what
// remains load-bearing is the save-level stamp every freshly allocated
// value is tagged with, the bounded recursion depth free_value enforces,
// and the objnum stack resolve_indirect uses for cycle detection (spec
// §3's "Execution Context" fields).
type Pool struct {
	SaveLevel int

	freeDepth int
	resolving []int32
}

// MaxRecursionDepth bounds free_value's descent and resolve_indirect's
// objnum stack (spec §3: "PDF_MAX_RECURSION_DEPTH = 32").
const MaxRecursionDepth = 32

// NewPool returns a pool at the given save level.
func NewPool(saveLevel int) *Pool {
	return &Pool{SaveLevel: saveLevel}
}

// pushResolving records objnum as currently being resolved. Returns false
// if objnum is already on the stack (a cycle) or the stack is already at
// MaxRecursionDepth (spec: "reaching an objnum already on the stack
// during a lookup returns 'already resolved' and prevents re-descent").
func (p *Pool) pushResolving(objnum int32) (pushed bool, cyclic bool, err error) {
	for _, n := range p.resolving {
		if n == objnum {
			return false, true, nil
		}
	}
	if len(p.resolving) >= MaxRecursionDepth {
		return false, false, perrors.New("resolve_indirect", perrors.LimitCheck, "recursion depth exceeds %d", MaxRecursionDepth)
	}
	p.resolving = append(p.resolving, objnum)
	return true, false, nil
}

func (p *Pool) popResolving() {
	p.resolving = p.resolving[:len(p.resolving)-1]
}
