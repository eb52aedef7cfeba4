package exec

import (
	"github.com/mechiko/pdfexec/pkg/perrors"
	"github.com/mechiko/pdfexec/pkg/streamchain"
	"github.com/mechiko/pdfexec/pkg/types"
)

// resourceCacheEntry is one of a marking context's 3 fixed slots.
type resourceCacheEntry struct {
	Resource types.Object
	Valid    bool
}

// MarkingContext is a nested scope within an execution context for
// generating page, form, Type 3 glyph or pattern content (spec §3's
// "Marking Context"). The outermost one per execution context is a
// placeholder with no client hook calls — a bookkeeping root for xref
// operations issued before any real page begins.
type MarkingContext struct {
	Ctx        *ExecutionContext
	parent     *MarkingContext
	MC         int
	StreamType StreamType

	// Contents, ContentsIndex and ContentsStream stand in for the
	// original's opaque per-stream-type payload (spec §3); the content-
	// stream interpreter that would populate them is outside this
	// core's scope (spec §1 Non-goal: "the PostScript-level interpreter").
	Contents       types.Object
	ContentsIndex  int
	ContentsStream types.Object

	resources         *resourceNode
	resourceCache     [resourceCacheSlots]resourceCacheEntry
	pushedOwnResource bool
	RestoreList       []*streamchain.RestoreEntry
}

// beginMarkingContext is the engine behind both the placeholder context
// BeginExecutionContext opens and the public BeginMarkingContext: the
// placeholder is distinguished by parent == nil, which is also exactly
// when the client begin/init hooks must be skipped (spec §4.E:
// "Invoke the client begin_marking_context method unless this is the
// placeholder... context").
func (ctx *ExecutionContext) beginMarkingContext(resource types.Object, st StreamType) (*MarkingContext, error) {
	parent := ctx.current
	if parent != nil && parent.MC >= MaxMCNestCount {
		return nil, perrors.New("begin_marking_context", perrors.LimitCheck, "marking context nesting exceeds %d", MaxMCNestCount)
	}

	mc := &MarkingContext{Ctx: ctx, StreamType: st}

	if parent != nil {
		if ctx.Hooks.BeginMarkingContext != nil {
			if err := ctx.Hooks.BeginMarkingContext(mc); err != nil {
				return nil, err
			}
		}
		if ctx.Hooks.InitMarkingContext != nil {
			fn := ctx.Hooks.InitMarkingContext
			ctx.Hooks.InitMarkingContext = nil
			if err := fn(mc); err != nil {
				return nil, err
			}
		}

		mc.MC = parent.MC + 1
		mc.resources = parent.resources
		mc.resourceCache = parent.resourceCache
	}

	if resource != nil {
		if err := mc.pushResource(resource); err != nil {
			return nil, err
		}
	}

	mc.parent = parent
	ctx.current = mc
	return mc, nil
}

// BeginMarkingContext opens a new marking context nested inside ctx's
// current one. resource, if non-nil, is pushed onto the new context's
// resource list (it is resolved through ctx.XRef first if it is an
// indirect reference) and popped automatically when the marking context
// ends.
func (ctx *ExecutionContext) BeginMarkingContext(resource types.Object, st StreamType) (*MarkingContext, error) {
	return ctx.beginMarkingContext(resource, st)
}

// endMarkingContext is the engine behind both EndExecutionContext's
// closing of the placeholder context and the public EndMarkingContext.
// The client end hook runs unconditionally, including for the
// placeholder (original_source's pdf_end_marking_context calls
// PDF_CHECK_METHOD(end_marking_context) with no placeholder guard, unlike
// begin).
func (ctx *ExecutionContext) endMarkingContext(mc *MarkingContext) error {
	if mc == nil {
		return perrors.New("end_marking_context", perrors.UndefinedResult, "no open marking context")
	}
	if mc != ctx.current {
		return perrors.New("end_marking_context", perrors.RangeCheck, "marking contexts must end LIFO")
	}

	var hookErr error
	if ctx.Hooks.EndMarkingContext != nil {
		hookErr = ctx.Hooks.EndMarkingContext(mc)
	}

	if !streamchain.RestoreStreams(mc.RestoreList, hookErr == nil) && hookErr == nil {
		hookErr = perrors.New("end_marking_context", perrors.UndefinedResult, "failed to restore one or more streams")
	}

	ctx.current = mc.parent

	if mc.pushedOwnResource {
		mc.popResource()
	}

	return hookErr
}

// EndMarkingContext closes mc, which must be ctx's current (innermost)
// marking context (spec §3: "Marking contexts are LIFO; end must match
// begin.").
func (ctx *ExecutionContext) EndMarkingContext(mc *MarkingContext) error {
	if mc.parent == nil {
		return perrors.New("end_marking_context", perrors.RangeCheck, "cannot end the placeholder outermost marking context directly")
	}
	return ctx.endMarkingContext(mc)
}

// SetMCCallback arms the one-shot init-marking-context hook for the next
// call to BeginMarkingContext (original_source's pdf_set_mc_callback).
func (ctx *ExecutionContext) SetMCCallback(fn func(*MarkingContext) error) {
	ctx.Hooks.InitMarkingContext = fn
}

// pushResource resolves resource (through ctx.XRef if it is an indirect
// reference) to a dictionary, prepends it to mc's resource list and
// invalidates the resource cache (original_source's pdf_add_resource:
// pushing a new resource can shadow a cached DefaultGray/RGB/CMYK entry).
func (mc *MarkingContext) pushResource(resource types.Object) error {
	d, err := mc.resolveDict(resource)
	if err != nil {
		return err
	}
	mc.resources = &resourceNode{dict: d, next: mc.resources}
	mc.resourceCache = [resourceCacheSlots]resourceCacheEntry{}
	mc.pushedOwnResource = true
	return nil
}

// popResource removes the most recently pushed resource and invalidates
// the resource cache (original_source's pdf_remove_resource).
func (mc *MarkingContext) popResource() {
	if mc.resources == nil {
		return
	}
	mc.resources = mc.resources.next
	mc.resourceCache = [resourceCacheSlots]resourceCacheEntry{}
	mc.pushedOwnResource = false
}

func (mc *MarkingContext) resolveDict(resource types.Object) (types.Dict, error) {
	v := resource
	if ref, ok := resource.(types.IndirectRef); ok {
		resolved, err := mc.Ctx.XRef.Lookup(ref)
		if err != nil {
			return types.Dict{}, err
		}
		v = resolved
	}
	d, ok := v.(types.Dict)
	if !ok {
		return types.Dict{}, perrors.New("add_resource", perrors.TypeCheck, "resource is not a dictionary")
	}
	return d, nil
}

// Resources returns the dictionaries pushed onto mc's resource list,
// innermost (most recently pushed) first.
func (mc *MarkingContext) Resources() []types.Dict {
	var out []types.Dict
	for n := mc.resources; n != nil; n = n.next {
		out = append(out, n.dict)
	}
	return out
}

// CachedResource returns slot's cached resource and whether it is valid
// (original_source's PDF_RESOURCE_CACHE; invalidated by any push/pop).
func (mc *MarkingContext) CachedResource(slot resourceCacheSlot) (types.Object, bool) {
	e := mc.resourceCache[slot]
	return e.Resource, e.Valid
}

// SetCachedResource populates slot's cache entry.
func (mc *MarkingContext) SetCachedResource(slot resourceCacheSlot, v types.Object) {
	mc.resourceCache[slot] = resourceCacheEntry{Resource: v, Valid: true}
}

// RecordRewind appends entry to mc's restore list if non-nil, implementing
// the "first rewind within a marking context wins" rule: an entry for a
// handle that already has one in this marking context is dropped (spec
// §4.D).
func (mc *MarkingContext) RecordRewind(entry *streamchain.RestoreEntry) {
	if entry == nil {
		return
	}
	for _, e := range mc.RestoreList {
		if e.Handle == entry.Handle {
			return
		}
	}
	mc.RestoreList = append(mc.RestoreList, entry)
}
