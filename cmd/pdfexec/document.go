package main

import "github.com/mechiko/pdfexec/pkg/types"

// syntheticLoader is a stand-in for the PDF-syntax parser this core
// consumes but does not implement (spec §1 Non-goal: "it does not parse
// all PDF syntax"). It answers LoadAt/LoadFromObjectStream from an
// in-memory object table built by newSyntheticDocument, the way a real
// parser would answer them by seeking into a file.
type syntheticLoader struct {
	objects map[int32]types.Object
}

func (l *syntheticLoader) LoadAt(offset int64) (types.Object, error) {
	return l.objects[int32(offset)], nil
}

func (l *syntheticLoader) LoadFromObjectStream(streamObjNum int32, index int) (types.Object, error) {
	return types.Null{}, nil
}

// syntheticDocument is a minimal in-memory stand-in for a parsed PDF: a
// handful of page dictionaries, each with a Resources dictionary naming a
// Font and an XObject, wired into an xref table the way a real loader
// would populate one after reading a file's cross-reference section.
// newSyntheticDocument uses the object number itself as the loader's
// "offset", since there is no real file behind it.
type syntheticDocument struct {
	loader    *syntheticLoader
	pageRefs  []types.IndirectRef
	resources []types.IndirectRef
}

func newSyntheticDocument(pages int) *syntheticDocument {
	loader := &syntheticLoader{objects: map[int32]types.Object{}}
	doc := &syntheticDocument{loader: loader}

	var nextObjNum int32 = 1
	alloc := func(o types.Object) int32 {
		n := nextObjNum
		nextObjNum++
		loader.objects[n] = o
		return n
	}

	font := types.NewDict(0)
	_ = font.InsertHash("Type", types.Name("Font"), 0)
	_ = font.InsertHash("Subtype", types.Name("Type1"), 0)
	_ = font.InsertHash("BaseFont", types.Name("Helvetica"), 0)
	fontNum := alloc(font)

	xobj := types.NewDict(0)
	_ = xobj.InsertHash("Type", types.Name("XObject"), 0)
	_ = xobj.InsertHash("Subtype", types.Name("Image"), 0)
	xobjNum := alloc(xobj)

	for i := 0; i < pages; i++ {
		fontDict := types.NewDict(0)
		_ = fontDict.InsertHash("F1", types.NewIndirectRef(fontNum, 0), 0)
		xobjDict := types.NewDict(0)
		_ = xobjDict.InsertHash("Im1", types.NewIndirectRef(xobjNum, 0), 0)

		resources := types.NewDict(0)
		_ = resources.InsertHash("Font", fontDict, 0)
		_ = resources.InsertHash("XObject", xobjDict, 0)
		resourcesNum := alloc(resources)
		doc.resources = append(doc.resources, types.NewIndirectRef(resourcesNum, 0))

		page := types.NewDict(0)
		_ = page.InsertHash("Type", types.Name("Page"), 0)
		_ = page.InsertHash("Resources", types.NewIndirectRef(resourcesNum, 0), 0)
		pageNum := alloc(page)
		doc.pageRefs = append(doc.pageRefs, types.NewIndirectRef(pageNum, 0))
	}

	return doc
}
