package streamchain

import "github.com/mechiko/pdfexec/pkg/filter"

// ReusableStreamDecode is not a PDF-defined byte filter; it is the
// synthetic layer create_filter inserts beneath JPXDecode so JPX's
// implicit reusable-stream semantics consume core memory rather than PS
// VM (spec §4.D step 3).
const ReusableStreamDecode = "ReusableStreamDecode"

// abbreviations maps the common PDF filter-name abbreviations to their
// canonical names (spec §4.D step 1). Grounded on pkg/filter's constants
// plus CCF/DCT, which pkg/filter names for recognition but does not
// implement (image codecs, out of this core's scope).
var abbreviations = map[string]string{
	"A85": filter.ASCII85,
	"AHx": filter.ASCIIHex,
	"CCF": filter.CCITTFax,
	"DCT": filter.DCT,
	"Fl":  filter.Flate,
	"LZW": filter.LZW,
	"RL":  filter.RunLength,
}

func expandAbbreviation(name string) string {
	if full, ok := abbreviations[name]; ok {
		return full
	}
	return name
}
