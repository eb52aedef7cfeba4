package streamchain

import "io"

// identityFilter passes bytes through unchanged. It backs the
// ReusableStreamDecode layer create_filter inserts beneath JPXDecode and
// the JPXDecode layer itself: actually decoding JPEG2000 pixel data is a
// rendering concern outside this core's scope (spec §1), but the
// layering mechanics JPXDecode triggers — the extra RSD handle, forcing
// close_src — are still part of Component D's chain-building contract
// and are exercised here without a real image codec behind them.
type identityFilter struct{}

func (identityFilter) Encode(r io.Reader) (io.Reader, error) { return r, nil }
func (identityFilter) Decode(r io.Reader) (io.Reader, error) { return r, nil }
