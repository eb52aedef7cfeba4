package objmem

import (
	"github.com/mechiko/pdfexec/pkg/types"
)

// FreeValue recursively frees compound contents then retags the slot
// nothing (spec §4.A's free_value). Recursion is bounded by p's free
// depth counter; exceeding MaxRecursionDepth silently stops descending
// rather than erroring — the spec is explicit that a partial leak here is
// acceptable because the pool's eventual teardown reclaims it.
//
// Stream values are never freed here: free_value marks them flushable
// instead (spec §3's release protocol; see Component C's deferred flush)
// so that multiple references to the same stream don't double-free.
func FreeValue(p *Pool, v types.Object) types.Object {
	freeValue(p, v)
	return types.Null{}
}

func freeValue(p *Pool, v types.Object) {
	if p.freeDepth >= MaxRecursionDepth {
		return
	}
	p.freeDepth++
	defer func() { p.freeDepth-- }()

	switch o := v.(type) {
	case types.Array:
		for _, e := range o {
			if e != nil {
				freeValue(p, e)
			}
		}
	case types.Dict:
		o.Walk(func(_ string, e types.Object) bool {
			if e != nil {
				freeValue(p, e)
			}
			return true
		})
	case types.StreamDict:
		o.MarkFlushable()
	}
}
