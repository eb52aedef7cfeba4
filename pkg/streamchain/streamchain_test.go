package streamchain_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/mechiko/pdfexec/pkg/config"
	"github.com/mechiko/pdfexec/pkg/filter"
	"github.com/mechiko/pdfexec/pkg/streamchain"
	"github.com/mechiko/pdfexec/pkg/types"
	"github.com/stretchr/testify/require"
)

func encodedFlate(t *testing.T, plain string) []byte {
	f, err := filter.NewFilter(filter.Flate, nil)
	require.NoError(t, err)
	r, err := f.Encode(strings.NewReader(plain))
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return b
}

func TestCreateFilterExpandsAbbreviationAndDecodes(t *testing.T) {
	cfg := config.NewDefaultConfiguration()
	c := streamchain.NewChain(cfg)

	encoded := encodedFlate(t, "Hello, stream chain!")
	src := c.NewSourceHandle(bytes.NewReader(encoded), nil, 1, 0)

	h, err := streamchain.CreateFilter(c, src, "Fl", types.Dict{}, false)
	require.NoError(t, err)
	require.Equal(t, filter.Flate, h.Name)
	require.True(t, h.Rewindable)

	r, err := h.Reader()
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "Hello, stream chain!", string(out))
}

func TestCreateFilterFlateInsertsErrorOnChecksumFailure(t *testing.T) {
	cfg := config.NewDefaultConfiguration()
	cfg.ErrorOnFlateChecksumFailure = true
	c := streamchain.NewChain(cfg)

	encoded := encodedFlate(t, "x")
	src := c.NewSourceHandle(bytes.NewReader(encoded), nil, 1, 0)

	h, err := streamchain.CreateFilter(c, src, filter.Flate, types.Dict{}, false)
	require.NoError(t, err)

	v, err := h.Parms.ExtractHash("ErrorOnChecksumFailure")
	require.NoError(t, err)
	require.Equal(t, types.Boolean(true), v)
}

func TestCreateFilterUndefinedForUnknownName(t *testing.T) {
	c := streamchain.NewChain(config.NewDefaultConfiguration())
	src := c.NewSourceHandle(bytes.NewReader(nil), nil, 1, 0)
	_, err := streamchain.CreateFilter(c, src, "Bogus", types.Dict{}, false)
	require.Error(t, err)
}

func TestCreateFilterJPXLayersReusableStreamDecodeBeneath(t *testing.T) {
	c := streamchain.NewChain(config.NewDefaultConfiguration())
	src := c.NewSourceHandle(bytes.NewReader([]byte("jp2-bytes")), nil, 1, 0)

	h, err := streamchain.CreateFilter(c, src, filter.JPX, types.Dict{}, false)
	require.NoError(t, err)
	require.Equal(t, filter.JPX, h.Name)
	require.True(t, h.CloseSource, "close_src is forced on the JPX layer")

	handles := c.Handles()
	require.Len(t, handles, 3) // source, RSD, JPX
	var sawRSD bool
	for _, hh := range handles {
		if hh.Name == streamchain.ReusableStreamDecode {
			sawRSD = true
		}
	}
	require.True(t, sawRSD)
}

func TestFlushStreamsClosesAndEmptiesList(t *testing.T) {
	c := streamchain.NewChain(config.NewDefaultConfiguration())
	src := c.NewSourceHandle(bytes.NewReader(nil), nil, 1, 0)
	h, err := streamchain.CreateFilter(c, src, filter.ASCII85, types.Dict{}, true)
	require.NoError(t, err)
	require.True(t, h.Open)

	require.NoError(t, streamchain.FlushStreams(c))
	require.False(t, h.Open)
	require.Empty(t, c.Handles())
}

func TestPurgeStreamsReclaimsClosedNonRewindable(t *testing.T) {
	c := streamchain.NewChain(config.NewDefaultConfiguration())
	src := c.NewSourceHandle(bytes.NewReader(nil), nil, 1, 0)
	h, err := streamchain.CreateFilter(c, src, filter.RunLength, types.Dict{}, false)
	require.NoError(t, err)

	c.SetSentinel()
	h.Open = false
	h.Rewindable = false

	freed := streamchain.PurgeStreams(c)
	require.True(t, freed)
	for _, hh := range c.Handles() {
		require.NotEqual(t, h.ID, hh.ID)
	}
}

func TestMeasurePurgeableStreamsCachesUntilRedo(t *testing.T) {
	c := streamchain.NewChain(config.NewDefaultConfiguration())
	src := c.NewSourceHandle(bytes.NewReader(nil), nil, 1, 0)
	h, err := streamchain.CreateFilter(c, src, filter.RunLength, types.Dict{}, false)
	require.NoError(t, err)
	c.SetSentinel()
	h.Open = false
	h.Rewindable = false

	n1 := streamchain.MeasurePurgeableStreams(c)
	require.Equal(t, 1, n1)

	// No new filter created: second call must return the cached count
	// even if the underlying state no longer matches.
	h.Rewindable = true
	n2 := streamchain.MeasurePurgeableStreams(c)
	require.Equal(t, n1, n2)
}

func TestRewindStreamRecordsPositionOnceForRestore(t *testing.T) {
	c := streamchain.NewChain(config.NewDefaultConfiguration())
	r := bytes.NewReader([]byte("0123456789"))
	src := c.NewSourceHandle(r, nil, 1, 0)
	_, err := src.Reader() // materialize so the handle's reader cache is set
	require.NoError(t, err)

	_, err = r.Seek(4, io.SeekStart)
	require.NoError(t, err)

	rewound, entry, err := streamchain.RewindStream(src)
	require.NoError(t, err)
	require.True(t, rewound)
	require.NotNil(t, entry)
	require.Equal(t, int64(4), entry.Position)

	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(0), pos)
}

func TestRewindStreamAtEOFDoesNotRewind(t *testing.T) {
	c := streamchain.NewChain(config.NewDefaultConfiguration())
	r := bytes.NewReader([]byte("ab"))
	src := c.NewSourceHandle(r, nil, 1, 0)

	_, err := r.Seek(0, io.SeekEnd)
	require.NoError(t, err)

	rewound, entry, err := streamchain.RewindStream(src)
	require.NoError(t, err)
	require.False(t, rewound)
	require.Nil(t, entry)
}

func TestRestoreStreamsSeeksBackAndDrains(t *testing.T) {
	c := streamchain.NewChain(config.NewDefaultConfiguration())
	r := bytes.NewReader([]byte("0123456789"))
	src := c.NewSourceHandle(r, nil, 1, 0)

	entries := []*streamchain.RestoreEntry{{Position: 6, Handle: src}}
	ok := streamchain.RestoreStreams(entries, true)
	require.True(t, ok)

	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(6), pos)
}

func TestRestoreStreamsSkippedWhenResultFalse(t *testing.T) {
	c := streamchain.NewChain(config.NewDefaultConfiguration())
	r := bytes.NewReader([]byte("0123456789"))
	src := c.NewSourceHandle(r, nil, 1, 0)
	_, _ = r.Seek(2, io.SeekStart)

	entries := []*streamchain.RestoreEntry{{Position: 6, Handle: src}}
	ok := streamchain.RestoreStreams(entries, false)
	require.False(t, ok)

	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(2), pos, "a false result must not seek, only drain")
}
