package ncache_test

import (
	"strings"
	"testing"

	"github.com/mechiko/pdfexec/pkg/ncache"
	"github.com/mechiko/pdfexec/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestInternIsPointerEqualForEqualBytes(t *testing.T) {
	c := ncache.New()
	a, err := c.InternString("Type")
	require.NoError(t, err)
	b, err := c.InternString("Type")
	require.NoError(t, err)
	require.Same(t, a, b)
}

func TestInternShortVsLongAreDistinctSets(t *testing.T) {
	c := ncache.New()
	shortName, err := c.InternString("Type")
	require.NoError(t, err)

	longBytes := strings.Repeat("a", ncache.MaxShortName+1)
	longName, err := c.InternString(longBytes)
	require.NoError(t, err)

	require.NotEqual(t, shortName.Name(), longName.Name())
}

func TestInternRejectsOverLongName(t *testing.T) {
	c := ncache.New()
	_, err := c.Intern(make([]byte, ncache.MaxLongName+1))
	require.Error(t, err)
}

func TestInternNormalizesCanonicallyEquivalentBytes(t *testing.T) {
	c := ncache.New()

	precomposed, err := c.InternString("é") // é, NFC single codepoint
	require.NoError(t, err)

	decomposed, err := c.InternString("é") // e + combining acute accent
	require.NoError(t, err)

	require.Same(t, precomposed, decomposed, "canonically equivalent names must intern to the same record")
}

func TestFastExtractHashHitAndMiss(t *testing.T) {
	c := ncache.New()
	nr, err := c.InternString("Type")
	require.NoError(t, err)

	d := types.NewDict(0)
	require.NoError(t, d.InsertHash("Type", types.Name("Page"), 0))

	v, err := ncache.FastExtractHash(d, nr, 0)
	require.NoError(t, err)
	require.Equal(t, types.Name("Page"), v)

	// Different save level must miss the fast path, not the dict itself.
	v2, err := ncache.FastExtractHash(d, nr, 1)
	require.NoError(t, err)
	require.Equal(t, types.Name("Page"), v2)
}

func TestFastExtractHashAdvisoryOnRemoval(t *testing.T) {
	c := ncache.New()
	nr, err := c.InternString("Type")
	require.NoError(t, err)

	d := types.NewDict(0)
	require.NoError(t, d.InsertHash("Type", types.Name("Page"), 0))
	_, err = ncache.FastExtractHash(d, nr, 0)
	require.NoError(t, err)

	require.NoError(t, d.RemoveHash("Type", false))
	ncache.InvalidateFast(nr)

	v, err := ncache.FastExtractHash(d, nr, 0)
	require.NoError(t, err)
	require.Nil(t, v, "stale fast pointer must not resurrect a removed entry")
}
