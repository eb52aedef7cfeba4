// Package perrors defines the execution core's error kinds.
//
// The original RIP core reports failures as a boolean return plus a
// thread-local error code (spec §7). This port uses an explicit error
// value instead: every core operation that can fail returns a Go error,
// and callers that need to branch on the failure kind recover it with
// errors.As against *Error. Wrapping follows the teacher's convention of
// github.com/pkg/errors at each call site.
package perrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the abstract error kinds from spec §7.
type Kind int

const (
	// VMError means memory allocation failed.
	VMError Kind = iota
	// LimitCheck means a hard bound was exceeded (recursion depth, nesting,
	// string/array length).
	LimitCheck
	// RangeCheck means a numeric argument was out of range.
	RangeCheck
	// TypeCheck means an object had the wrong type for the operation.
	TypeCheck
	// Undefined means a name (typically a filter) was not found.
	Undefined
	// UndefinedResource means an indirect reference resolved to nothing.
	UndefinedResource
	// UndefinedResult means the parser returned nothing when a value was
	// expected.
	UndefinedResult
	// InvalidAccess means a permission-protected value was accessed
	// without override.
	InvalidAccess
)

func (k Kind) String() string {
	switch k {
	case VMError:
		return "vmerror"
	case LimitCheck:
		return "limitcheck"
	case RangeCheck:
		return "rangecheck"
	case TypeCheck:
		return "typecheck"
	case Undefined:
		return "undefined"
	case UndefinedResource:
		return "undefinedresource"
	case UndefinedResult:
		return "undefinedresult"
	case InvalidAccess:
		return "invalidaccess"
	default:
		return "unknown"
	}
}

// Error is a core error carrying one of the abstract kinds of spec §7.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "create_dict", "lookup_xref"
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("pdfexec: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("pdfexec: %s: %s: %s", e.Op, e.Kind, e.Msg)
}

// New builds an *Error for op/kind with an optional formatted message.
func New(op string, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err, or its github.com/pkg/errors cause, is a *Error
// of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := errors.Cause(err).(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}
