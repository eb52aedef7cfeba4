package types

import "strings"

// Array represents a PDF array object (spec §3's "array"/"longarray"; Go's
// slice has no fixed-capacity distinction so both collapse to one type,
// mirroring StringLiteral's treatment of string/longstring).
type Array []Object

func (a Array) Clone() Object {
	a1 := make(Array, len(a))
	for i, v := range a {
		if v != nil {
			v = v.Clone()
		}
		a1[i] = v
	}
	return a1
}

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		if v == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (a Array) PDFString() string {
	parts := make([]string, len(a))
	for i, v := range a {
		if v == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = v.PDFString()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
