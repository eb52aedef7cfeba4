package exec_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/mechiko/pdfexec/pkg/config"
	"github.com/mechiko/pdfexec/pkg/exec"
	"github.com/mechiko/pdfexec/pkg/streamchain"
	"github.com/mechiko/pdfexec/pkg/types"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct{}

func (fakeLoader) LoadAt(offset int64) (types.Object, error) { return types.Null{}, nil }
func (fakeLoader) LoadFromObjectStream(streamObjNum int32, index int) (types.Object, error) {
	return types.Null{}, nil
}

func newBase(t *testing.T) (*exec.Registry, *exec.Base) {
	t.Helper()
	r := exec.NewRegistry()
	b, err := r.NewBase(nil)
	require.NoError(t, err)
	return r, b
}

func TestBeginExecutionContextRejectsLowSaveLevel(t *testing.T) {
	_, b := newBase(t)

	_, err := b.BeginExecutionContext(exec.CoreContext{SaveLevel: exec.SaveLevelInc}, config.NewDefaultConfiguration(), fakeLoader{}, exec.Hooks{}, nil)
	require.Error(t, err)

	_, err = b.BeginExecutionContext(exec.CoreContext{SaveLevel: exec.SaveLevelInc - 1}, config.NewDefaultConfiguration(), fakeLoader{}, exec.Hooks{}, nil)
	require.Error(t, err)
}

func TestBeginEndExecutionContextRoundTrips(t *testing.T) {
	r, b := newBase(t)

	ctx, err := b.BeginExecutionContext(exec.CoreContext{SaveLevel: exec.SaveLevelInc + 1}, config.NewDefaultConfiguration(), fakeLoader{}, exec.Hooks{}, nil)
	require.NoError(t, err)
	require.NotNil(t, ctx)
	require.NotNil(t, ctx.CurrentMarkingContext(), "begin opens a placeholder marking context")
	require.Equal(t, int64(-1), ctx.PageID)

	require.NotNil(t, b.FindExecutionContext(ctx.ID))

	require.NoError(t, r.EndExecutionContext(ctx))
	require.Nil(t, b.FindExecutionContext(ctx.ID), "end unlinks the context from its base")
}

func TestNewBaseEnforcesMaxXContextBase(t *testing.T) {
	r := exec.NewRegistry()
	for i := 0; i < exec.MaxXContextBase; i++ {
		_, err := r.NewBase(nil)
		require.NoError(t, err)
	}

	_, err := r.NewBase(nil)
	require.Error(t, err)
}

func TestEndExecutionContextRunsHooksAndFlushesStreams(t *testing.T) {
	r, b := newBase(t)

	var began, ended bool
	hooks := exec.Hooks{
		BeginExecutionContext: func(*exec.ExecutionContext) error { began = true; return nil },
		EndExecutionContext:   func(*exec.ExecutionContext) error { ended = true; return nil },
	}

	ctx, err := b.BeginExecutionContext(exec.CoreContext{SaveLevel: exec.SaveLevelInc + 1}, config.NewDefaultConfiguration(), fakeLoader{}, hooks, nil)
	require.NoError(t, err)
	require.True(t, began)

	require.NoError(t, r.EndExecutionContext(ctx))
	require.True(t, ended)
}

func newCtx(t *testing.T, hooks exec.Hooks) *exec.ExecutionContext {
	t.Helper()
	_, b := newBase(t)
	ctx, err := b.BeginExecutionContext(exec.CoreContext{SaveLevel: exec.SaveLevelInc + 1}, config.NewDefaultConfiguration(), fakeLoader{}, hooks, nil)
	require.NoError(t, err)
	return ctx
}

func TestBeginMarkingContextNests(t *testing.T) {
	ctx := newCtx(t, exec.Hooks{})
	placeholder := ctx.CurrentMarkingContext()

	mc, err := ctx.BeginMarkingContext(nil, exec.StreamTypePage)
	require.NoError(t, err)
	require.Equal(t, placeholder.MC+1, mc.MC)
	require.Same(t, mc, ctx.CurrentMarkingContext())
}

func TestMarkingContextNestLimit(t *testing.T) {
	ctx := newCtx(t, exec.Hooks{})

	var last *exec.MarkingContext
	for i := 0; i < exec.MaxMCNestCount; i++ {
		mc, err := ctx.BeginMarkingContext(nil, exec.StreamTypeForm)
		require.NoError(t, err)
		last = mc
	}
	require.Equal(t, exec.MaxMCNestCount, last.MC)

	_, err := ctx.BeginMarkingContext(nil, exec.StreamTypeForm)
	require.Error(t, err)
}

func TestEndMarkingContextEnforcesLIFO(t *testing.T) {
	ctx := newCtx(t, exec.Hooks{})

	outer, err := ctx.BeginMarkingContext(nil, exec.StreamTypeForm)
	require.NoError(t, err)
	_, err = ctx.BeginMarkingContext(nil, exec.StreamTypeForm)
	require.NoError(t, err)

	err = ctx.EndMarkingContext(outer)
	require.Error(t, err, "ending a non-current marking context must fail")
}

func TestEndMarkingContextRejectsPlaceholder(t *testing.T) {
	ctx := newCtx(t, exec.Hooks{})
	placeholder := ctx.CurrentMarkingContext()

	err := ctx.EndMarkingContext(placeholder)
	require.Error(t, err)
}

func TestEndMarkingContextRunsHookUnconditionallyIncludingPlaceholder(t *testing.T) {
	r, b := newBase(t)

	var endCalls, beginCalls int
	hooks := exec.Hooks{
		BeginMarkingContext: func(*exec.MarkingContext) error { beginCalls++; return nil },
		EndMarkingContext:   func(*exec.MarkingContext) error { endCalls++; return nil },
	}

	ctx, err := b.BeginExecutionContext(exec.CoreContext{SaveLevel: exec.SaveLevelInc + 1}, config.NewDefaultConfiguration(), fakeLoader{}, hooks, nil)
	require.NoError(t, err)
	require.Equal(t, 0, beginCalls, "the placeholder marking context skips the begin hook")

	require.NoError(t, r.EndExecutionContext(ctx))
	require.Equal(t, 1, endCalls, "the end hook fires even for the placeholder")
}

func TestInitMarkingContextCallbackFiresOnce(t *testing.T) {
	ctx := newCtx(t, exec.Hooks{})

	var calls int
	ctx.SetMCCallback(func(*exec.MarkingContext) error { calls++; return nil })

	_, err := ctx.BeginMarkingContext(nil, exec.StreamTypeForm)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	_, err = ctx.BeginMarkingContext(nil, exec.StreamTypeForm)
	require.NoError(t, err)
	require.Equal(t, 1, calls, "the init callback is one-shot")
}

func TestResourceCacheInheritsUntilInvalidatedByAPush(t *testing.T) {
	ctx := newCtx(t, exec.Hooks{})

	fontRes := types.NewDict(0)
	require.NoError(t, fontRes.InsertHash("Type", types.Name("Font"), 0))

	mc1, err := ctx.BeginMarkingContext(fontRes, exec.StreamTypeForm)
	require.NoError(t, err)
	dicts := mc1.Resources()
	require.Len(t, dicts, 1)
	name, err := dicts[0].ExtractHash("Type")
	require.NoError(t, err)
	require.Equal(t, types.Name("Font"), name)

	mc1.SetCachedResource(exec.DefaultGray, types.Name("DeviceGray"))
	_, valid := mc1.CachedResource(exec.DefaultGray)
	require.True(t, valid)

	mc2, err := ctx.BeginMarkingContext(nil, exec.StreamTypeForm)
	require.NoError(t, err)
	_, valid = mc2.CachedResource(exec.DefaultGray)
	require.True(t, valid, "a child pushing no resource of its own inherits a valid cache")
	require.Len(t, mc2.Resources(), 1, "it also shares its parent's resource list")

	xobjRes := types.NewDict(0)
	require.NoError(t, xobjRes.InsertHash("Type", types.Name("XObject"), 0))
	mc3, err := ctx.BeginMarkingContext(xobjRes, exec.StreamTypeForm)
	require.NoError(t, err)
	_, valid = mc3.CachedResource(exec.DefaultGray)
	require.False(t, valid, "pushing a new resource invalidates the inherited cache")
	require.Len(t, mc3.Resources(), 2)

	require.NoError(t, ctx.EndMarkingContext(mc3))
	require.NoError(t, ctx.EndMarkingContext(mc2))
	require.NoError(t, ctx.EndMarkingContext(mc1))
}

func TestPurgeExecutionContextsReclaimsObjectPool(t *testing.T) {
	r, b := newBase(t)

	ctx, err := b.BeginExecutionContext(exec.CoreContext{SaveLevel: 5}, config.NewDefaultConfiguration(), fakeLoader{}, exec.Hooks{}, nil)
	require.NoError(t, err)
	require.NotNil(t, ctx.ObjectPool)

	require.NoError(t, r.EndExecutionContext(ctx))
	require.NotNil(t, ctx.ObjectPool, "the pool survives until a matching purge")

	r.PurgeExecutionContexts(5)
	require.Nil(t, ctx.ObjectPool, "purging at or above the recorded save level releases the pool")
}

func TestPurgeExecutionContextsLeavesLowerLevelsAlone(t *testing.T) {
	r, b := newBase(t)

	ctx, err := b.BeginExecutionContext(exec.CoreContext{SaveLevel: exec.SaveLevelInc + 1}, config.NewDefaultConfiguration(), fakeLoader{}, exec.Hooks{}, nil)
	require.NoError(t, err)
	require.NoError(t, r.EndExecutionContext(ctx))

	r.PurgeExecutionContexts(10)
	require.NotNil(t, ctx.ObjectPool, "a purge at a save level above the recorded one must not reclaim it")
}

func TestRecordRewindFeedsRestoreStreams(t *testing.T) {
	ctx := newCtx(t, exec.Hooks{})
	chain := streamchain.NewChain(config.NewDefaultConfiguration())

	src := bytes.NewReader([]byte("0123456789"))
	h := chain.NewSourceHandle(src, nil, 1, 0)
	_, err := src.Seek(4, io.SeekStart)
	require.NoError(t, err)

	mc, err := ctx.BeginMarkingContext(nil, exec.StreamTypeForm)
	require.NoError(t, err)

	mc.RecordRewind(&streamchain.RestoreEntry{Position: 4, Handle: h})
	mc.RecordRewind(nil)

	_, err = src.Seek(7, io.SeekStart)
	require.NoError(t, err)

	require.NoError(t, ctx.EndMarkingContext(mc))

	pos, err := src.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	require.EqualValues(t, 4, pos, "ending the marking context restores the recorded position")
}

func TestEndMarkingContextReturnsErrorWhenRestoreFails(t *testing.T) {
	ctx := newCtx(t, exec.Hooks{})
	chain := streamchain.NewChain(config.NewDefaultConfiguration())

	src := bytes.NewReader([]byte("0123456789"))
	h := chain.NewSourceHandle(src, nil, 1, 0)

	mc, err := ctx.BeginMarkingContext(nil, exec.StreamTypeForm)
	require.NoError(t, err)

	// An out-of-range position makes the underlying seek fail, so
	// RestoreStreams reports false even though the hook itself succeeds.
	mc.RecordRewind(&streamchain.RestoreEntry{Position: -1, Handle: h})

	err = ctx.EndMarkingContext(mc)
	require.Error(t, err, "a failed stream restore must surface as an error, not be swallowed")
}
