package objmem

import (
	"github.com/mechiko/pdfexec/pkg/perrors"
	"github.com/mechiko/pdfexec/pkg/types"
)

// CreateDict range-checks capacity and returns a fresh dict stamped with
// p's save level and full permissions (spec §4.A's create_dict).
// Capacity only bounds the request; types.Dict grows on demand like any
// Go map, so there is nothing further to preallocate.
func CreateDict(p *Pool, capacity int) (types.Dict, error) {
	if capacity < 0 || capacity > types.MaxPSDict {
		return types.Dict{}, perrors.New("create_dict", perrors.RangeCheck, "capacity %d outside [0, %d]", capacity, types.MaxPSDict)
	}
	return types.NewDict(p.SaveLevel), nil
}

// CreateArray range-checks length and returns a fresh array of that many
// null slots (spec §4.A's create_array; length > MaxPSArray fails with
// limitcheck).
func CreateArray(p *Pool, length int) (types.Array, error) {
	if length < 0 || length > types.MaxPSArray {
		return nil, perrors.New("create_array", perrors.LimitCheck, "length %d exceeds %d", length, types.MaxPSArray)
	}
	a := make(types.Array, length)
	for i := range a {
		a[i] = types.Null{}
	}
	return a, nil
}

// CreateString returns a fresh zero-filled string of the given length
// (spec §4.A's create_string; length > MaxPSString fails with
// limitcheck).
func CreateString(p *Pool, length int) (types.StringLiteral, error) {
	if length < 0 || length > types.MaxPSString {
		return "", perrors.New("create_string", perrors.LimitCheck, "length %d exceeds %d", length, types.MaxPSString)
	}
	return types.StringLiteral(make([]byte, length)), nil
}

// CreateLongString is create_string's arbitrary-length counterpart (spec
// §4.A's create_longstring). Go strings have no short/long distinction,
// so this only differs from CreateString in not enforcing MaxPSString.
func CreateLongString(p *Pool, length int) (types.StringLiteral, error) {
	if length < 0 {
		return "", perrors.New("create_longstring", perrors.RangeCheck, "length %d is negative", length)
	}
	return types.StringLiteral(make([]byte, length)), nil
}

// NewIdentityMatrix builds a 6-real identity matrix array from pool
// memory (spec §4.A's "Matrix creation" auxiliary constructor).
func NewIdentityMatrix(p *Pool) types.Array {
	return types.Array{
		types.Real(1), types.Real(0),
		types.Real(0), types.Real(1),
		types.Real(0), types.Real(0),
	}
}
