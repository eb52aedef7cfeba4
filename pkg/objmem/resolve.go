package objmem

import (
	"github.com/mechiko/pdfexec/pkg/types"
)

// Resolver looks up the referent of an indirect reference in the xref
// cache (Component C). Defined here rather than imported from pkg/xref so
// objmem does not depend on xref; pkg/xref's XRefTable implements it.
type Resolver interface {
	Lookup(ref types.IndirectRef) (types.Object, error)
}

// ResolveIndirect replaces v with its referent if v is an indirect
// reference, then recursively resolves into arrays, dicts and stream
// dicts (spec §4.A's resolve_indirect). Resources/DataSource/
// HqnCacheSlot/Thresholds keys inside stream dictionaries are skipped.
// Cycles are detected via p's objnum stack: reaching an objnum already
// being resolved returns the reference unresolved rather than
// re-descending.
func ResolveIndirect(p *Pool, r Resolver, v types.Object) (types.Object, error) {
	ref, isRef := v.(types.IndirectRef)
	if !isRef {
		return resolveInto(p, r, v)
	}

	pushed, cyclic, err := p.pushResolving(ref.ObjectNumber)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return ref, nil
	}
	defer func() {
		if pushed {
			p.popResolving()
		}
	}()

	target, err := r.Lookup(ref)
	if err != nil {
		return nil, err
	}
	return resolveInto(p, r, target)
}

func resolveInto(p *Pool, r Resolver, v types.Object) (types.Object, error) {
	switch o := v.(type) {
	case types.Array:
		out := make(types.Array, len(o))
		for i, e := range o {
			re, err := ResolveIndirect(p, r, e)
			if err != nil {
				return nil, err
			}
			out[i] = re
		}
		return out, nil

	case types.Dict:
		out := types.NewDict(o.SaveLevel)
		var walkErr error
		o.WalkSorted(func(k string, val types.Object) bool {
			re, err := ResolveIndirect(p, r, val)
			if err != nil {
				walkErr = err
				return false
			}
			if err := out.InsertHash(k, re, types.DictAccess); err != nil {
				walkErr = err
				return false
			}
			return true
		})
		return out, walkErr

	case types.StreamDict:
		out := types.NewDict(o.SaveLevel)
		var walkErr error
		o.WalkSorted(func(k string, val types.Object) bool {
			if types.LifetimePropagationBlacklist[k] {
				if err := out.InsertHash(k, val, types.DictAccess); err != nil {
					walkErr = err
					return false
				}
				return true
			}
			re, err := ResolveIndirect(p, r, val)
			if err != nil {
				walkErr = err
				return false
			}
			if err := out.InsertHash(k, re, types.DictAccess); err != nil {
				walkErr = err
				return false
			}
			return true
		})
		if walkErr != nil {
			return nil, walkErr
		}
		sd := o
		sd.Dict = out
		return sd, nil

	default:
		return v, nil
	}
}
