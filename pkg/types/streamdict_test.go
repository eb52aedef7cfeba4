package types_test

import (
	"testing"

	"github.com/mechiko/pdfexec/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestStreamDictHasSoleFilterNamed(t *testing.T) {
	sd := types.NewStreamDict(types.NewDict(0), 0, nil, []types.PDFFilter{{Name: "FlateDecode"}})
	require.True(t, sd.HasSoleFilterNamed("FlateDecode"))
	require.False(t, sd.HasSoleFilterNamed("LZWDecode"))

	sd2 := types.NewStreamDict(types.NewDict(0), 0, nil, []types.PDFFilter{{Name: "FlateDecode"}, {Name: "ASCII85Decode"}})
	require.False(t, sd2.HasSoleFilterNamed("FlateDecode"))
}

func TestStreamDictCloneIsDeep(t *testing.T) {
	sd := types.NewStreamDict(types.NewDict(0), 0, nil, []types.PDFFilter{{Name: "FlateDecode"}})
	require.NoError(t, sd.InsertHash("Length", types.Integer(10), 0))

	clone := sd.Clone().(types.StreamDict)
	clone.FilterPipeline[0].Name = "LZWDecode"
	require.Equal(t, "FlateDecode", sd.FilterPipeline[0].Name, "cloning must not alias the pipeline slice")

	require.NoError(t, clone.RemoveHash("Length", false))
	v, err := sd.ExtractHash("Length")
	require.NoError(t, err)
	require.NotNil(t, v, "mutating the clone's dict must not affect the source")
}
