package exec

import (
	"sync/atomic"

	"github.com/mechiko/pdfexec/pkg/config"
	"github.com/mechiko/pdfexec/pkg/crypt"
	"github.com/mechiko/pdfexec/pkg/objmem"
	"github.com/mechiko/pdfexec/pkg/perrors"
	"github.com/mechiko/pdfexec/pkg/streamchain"
	"github.com/mechiko/pdfexec/pkg/xref"
)

var nextContextID int64

// Metadata is the document-level triple an execution context carries
// opaquely (spec §3: "a document-metadata triple (id, version,
// renditionClass)").
type Metadata struct {
	ID              string
	Version         string
	RenditionClass  string
}

// ExecutionContext is the per-document runtime state envelope (spec §3's
// "Execution Context"): two memory pools, the xref table, the stream
// chain, the (opaque) encryption state, a save level, a current page id,
// and the stack of marking contexts nested within it.
type ExecutionContext struct {
	ID   int64
	Base *Base

	ObjectPool    *objmem.Pool
	StructurePool *objmem.Pool
	XRef          *xref.XRefTable
	Chain         *streamchain.Chain
	Encryptor     crypt.Encryptor

	Metadata Metadata

	SaveLevel int
	PageID    int64

	// ErrorOnFlateChecksumFailure starts true regardless of cfg, mirroring
	// begin_execution_context's unconditional default; cfg only supplies
	// streamchain's own copy used while building filter chains.
	ErrorOnFlateChecksumFailure bool

	Hooks Hooks

	current *MarkingContext

	baseNext *ExecutionContext
	basePrev *ExecutionContext
}

// CoreContext is the subset of the surrounding PostScript interpreter's
// state begin_execution_context consults (spec §4.E:
// "corectx.savelevel > SAVELEVELINC").
type CoreContext struct {
	SaveLevel int
}

// Base is one of at most MaxXContextBase registered execution-context
// lists (spec §4.E: "Context registration"), each scanned as a GC root
// via its own Scan hook.
type Base struct {
	registry *Registry
	head     *ExecutionContext
	Scan     func(*ExecutionContext)
}

type purgedContext struct {
	ctx       *ExecutionContext
	saveLevel int
}

// Registry is the process-wide execution-context subsystem: the fixed
// set of registered bases plus the purge list ended contexts wait on
// until a save/restore crosses their save level (original_source's
// pdf_xcontext_bases / global purge list, pdfcntxt.c). A real process
// has exactly one; kept as an explicit value rather than package globals
// so tests can run several in isolation.
type Registry struct {
	bases []*Base
	purge []*purgedContext
}

// NewRegistry returns an empty execution-context registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewBase registers a new execution-context base, failing if
// MaxXContextBase are already registered.
func (r *Registry) NewBase(scan func(*ExecutionContext)) (*Base, error) {
	if len(r.bases) >= MaxXContextBase {
		return nil, perrors.New("new_base", perrors.LimitCheck, "at most %d execution-context bases supported", MaxXContextBase)
	}
	b := &Base{registry: r, Scan: scan}
	r.bases = append(r.bases, b)
	return b, nil
}

// FindExecutionContext walks base's list for the context with the given
// id (spec §6: "find execution context by id").
func (b *Base) FindExecutionContext(id int64) *ExecutionContext {
	for ctx := b.head; ctx != nil; ctx = ctx.baseNext {
		if ctx.ID == id {
			return ctx
		}
	}
	return nil
}

func (b *Base) link(ctx *ExecutionContext) {
	ctx.baseNext = b.head
	if b.head != nil {
		b.head.basePrev = ctx
	}
	b.head = ctx
}

func (b *Base) unlink(ctx *ExecutionContext) {
	if ctx.basePrev != nil {
		ctx.basePrev.baseNext = ctx.baseNext
	} else if b.head == ctx {
		b.head = ctx.baseNext
	}
	if ctx.baseNext != nil {
		ctx.baseNext.basePrev = ctx.basePrev
	}
	ctx.baseNext, ctx.basePrev = nil, nil
}

// BeginExecutionContext creates a new execution context on base
// (spec §4.E's begin_execution_context): it requires
// corectx.SaveLevel > SaveLevelInc, builds the object and structure
// pools, the xref table over loader/cfg, a fresh stream chain, calls
// hooks.BeginExecutionContext, and opens the placeholder outermost
// marking context. Any failure after pool creation leaves no trace —
// the half-built context is discarded without being linked onto base.
func (b *Base) BeginExecutionContext(corectx CoreContext, cfg *config.Configuration, loader xref.ObjectLoader, hooks Hooks, enc crypt.Encryptor) (*ExecutionContext, error) {
	if corectx.SaveLevel <= SaveLevelInc {
		return nil, perrors.New("begin_execution_context", perrors.Undefined, "save level %d must exceed %d", corectx.SaveLevel, SaveLevelInc)
	}

	if enc == nil {
		enc = crypt.NopEncryptor{}
	}

	chain := streamchain.NewChain(cfg)
	ctx := &ExecutionContext{
		ID:                          atomic.AddInt64(&nextContextID, 1),
		Base:                        b,
		ObjectPool:                  objmem.NewPool(corectx.SaveLevel),
		StructurePool:               objmem.NewPool(corectx.SaveLevel),
		Chain:                       chain,
		Encryptor:                   enc,
		SaveLevel:                   corectx.SaveLevel,
		PageID:                      -1,
		ErrorOnFlateChecksumFailure: true,
		Hooks:                       hooks,
	}
	ctx.XRef = xref.NewXRefTable(cfg, loader, chain)
	ctx.XRef.SetPageID(ctx.PageID)

	if hooks.BeginExecutionContext != nil {
		if err := hooks.BeginExecutionContext(ctx); err != nil {
			return nil, err
		}
	}

	if _, err := ctx.beginMarkingContext(nil, StreamTypePage); err != nil {
		return nil, err
	}

	b.link(ctx)
	return ctx, nil
}

// EndExecutionContext flushes ctx's stream chain, closes its placeholder
// marking context, calls hooks.EndExecutionContext, unlinks ctx from its
// base, and moves ctx onto the registry's purge list so its
// object pool is retained until a matching save/restore ends (spec
// §4.E's end_execution_context). Go's garbage collector makes "destroy
// the structure pool" a no-op beyond dropping the reference, unlike the
// original's explicit pool teardown.
func (r *Registry) EndExecutionContext(ctx *ExecutionContext) error {
	if err := streamchain.FlushStreams(ctx.Chain); err != nil {
		return err
	}

	if err := ctx.endMarkingContext(ctx.current); err != nil {
		return err
	}

	if ctx.Hooks.EndExecutionContext != nil {
		if err := ctx.Hooks.EndExecutionContext(ctx); err != nil {
			return err
		}
	}

	ctx.Base.unlink(ctx)
	ctx.StructurePool = nil

	r.purge = append(r.purge, &purgedContext{ctx: ctx, saveLevel: ctx.SaveLevel})
	return nil
}

// PurgeExecutionContexts calls hooks.PurgeExecutionContext for every
// still-live context on every registered base, then drops any ended
// context from the purge list whose recorded save level is at or above
// savelevel, releasing its object pool (spec §4.E's
// purge_execution_contexts).
func (r *Registry) PurgeExecutionContexts(savelevel int) {
	for _, b := range r.bases {
		for ctx := b.head; ctx != nil; ctx = ctx.baseNext {
			if ctx.Hooks.PurgeExecutionContext != nil {
				ctx.Hooks.PurgeExecutionContext(ctx, savelevel)
			}
		}
	}

	kept := r.purge[:0]
	for _, p := range r.purge {
		if p.saveLevel >= savelevel {
			p.ctx.ObjectPool = nil
			continue
		}
		kept = append(kept, p)
	}
	r.purge = kept
}

// SetPageID moves ctx to a new current page, affecting how subsequent
// xref lookups and lastAccessId propagation are tagged (spec §4.E).
func (ctx *ExecutionContext) SetPageID(id int64) {
	ctx.PageID = id
	ctx.XRef.SetPageID(id)
}

// CurrentMarkingContext returns the innermost open marking context,
// never nil once BeginExecutionContext has succeeded.
func (ctx *ExecutionContext) CurrentMarkingContext() *MarkingContext {
	return ctx.current
}
