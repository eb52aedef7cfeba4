// Package exec implements Component E: the execution context that owns a
// document's pools, xref table, stream chain and encryption state, and
// the stack of marking contexts nested within it (spec §3, §4.E).
//
// No teacher file models this — pdfcpu processes a document as one flat
// pkg/pdfcpu/model.Context with no notion of a "marking context" scope,
// because it never drives an interpreter. This package is grounded
// instead directly in original_source/pdfcntxt.c
// (pdf_begin_execution_context, pdf_end_execution_context,
// pdf_begin_marking_context, pdf_end_marking_context,
// pdf_purge_execution_contexts) and pdfres.c (pdf_add_resource,
// pdf_remove_resource), expressed with this module's established idiom:
// pkg/perrors for failures, and the pool/xref/streamchain/crypt types
// Components A, C, D and the crypt package already provide rather than
// reinventing any of their state.
package exec

import "github.com/mechiko/pdfexec/pkg/types"

// SaveLevelInc is the original's fixed PostScript save-level increment;
// begin_execution_context refuses to run at or below it (original_source's
// pdfcntxt.c: "Don't allow further processing at save level 0 or 2").
const SaveLevelInc = 2

// MaxMCNestCount bounds marking-context nesting depth (spec §3:
// "PDF_MAX_MC_NESTCOUNT = 32").
const MaxMCNestCount = 32

// MaxXContextBase is the number of execution-context bases a Registry
// will register — one for the input document, one for an output document
// under construction (spec §4.E: "At most MAX_XCONTEXT_BASE = 2 bases").
const MaxXContextBase = 2

// StreamType identifies what kind of content a marking context generates
// (spec §4.E: "streamtype ∈ {PAGE, FORM, CHARPROC, PATTERN}").
type StreamType int

const (
	StreamTypePage StreamType = iota
	StreamTypeForm
	StreamTypeCharProc
	StreamTypePattern
)

// resourceCacheSlot names the 3 fixed entries a marking context's
// resource cache holds (spec §3: "a small fixed cache of frequently-
// referenced resources (DefaultGray/RGB/CMYK)").
type resourceCacheSlot int

const (
	DefaultGray resourceCacheSlot = iota
	DefaultRGB
	DefaultCMYK
	resourceCacheSlots
)

// Hooks is the client method table the original passes as PDF_METHODS:
// callbacks invoked at well-defined points in the execution/marking
// context lifecycle. Every field is optional; a nil hook is simply
// skipped. InitMarkingContext is one-shot — BeginMarkingContext clears it
// after the first call, matching pdf_set_mc_callback's contract that the
// client must re-arm it for each marking context it should fire for.
type Hooks struct {
	BeginExecutionContext func(*ExecutionContext) error
	EndExecutionContext   func(*ExecutionContext) error
	PurgeExecutionContext func(*ExecutionContext, int)
	ScanContext           func(*ExecutionContext)

	BeginMarkingContext func(*MarkingContext) error
	EndMarkingContext   func(*MarkingContext) error
	InitMarkingContext  func(*MarkingContext) error
}

// resourceNode is one link of a marking context's resource list: a
// persistent, prepend-only singly linked stack so a child marking
// context can share its parent's list by copying just the head pointer
// (original_source's pdfres.c: "pdfc->pdfenv = pdfc->next->pdfenv").
type resourceNode struct {
	dict types.Dict
	next *resourceNode
}
