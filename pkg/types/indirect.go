package types

import "fmt"

// IndirectRef represents a PDF indirect reference `(objnum, gen)` (spec
// §3), grounded on pdfcpu's types.IndirectRef.
type IndirectRef struct {
	ObjectNumber     int32
	GenerationNumber uint16
}

// NewIndirectRef returns a new IndirectRef for the given object/generation
// numbers.
func NewIndirectRef(objectNumber int32, generationNumber uint16) IndirectRef {
	return IndirectRef{ObjectNumber: objectNumber, GenerationNumber: generationNumber}
}

func (ir IndirectRef) Clone() Object {
	return ir
}

func (ir IndirectRef) String() string {
	return fmt.Sprintf("(%s)", ir.PDFString())
}

func (ir IndirectRef) PDFString() string {
	return fmt.Sprintf("%d %d R", ir.ObjectNumber, ir.GenerationNumber)
}
