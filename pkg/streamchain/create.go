package streamchain

import (
	"github.com/mechiko/pdfexec/pkg/filter"
	"github.com/mechiko/pdfexec/pkg/perrors"
	"github.com/mechiko/pdfexec/pkg/types"
)

// CreateFilterList layers one handle per name, outer first, atop file.
// names/params come already split into parallel slices by the caller
// (the PostScript-side "name or array of names" distinction from spec
// §4.D belongs to the parser, not this package). Layering aborts on the
// first failure; on success the returned Handle is the topmost filter.
func CreateFilterList(c *Chain, file *Handle, names []string, params []types.Dict, closeSrc bool) (*Handle, error) {
	if len(params) > 0 && len(params) != len(names) {
		return nil, perrors.New("create_filter_list", perrors.RangeCheck, "params length %d != names length %d", len(params), len(names))
	}

	cur := file
	for i, name := range names {
		var args types.Dict
		if len(params) > 0 {
			args = params[i]
		}
		h, err := CreateFilter(c, cur, name, args, closeSrc)
		if err != nil {
			return nil, err
		}
		cur = h
	}
	return cur, nil
}

// CreateFilter layers one new filter handle atop file (spec §4.D).
func CreateFilter(c *Chain, file *Handle, name string, args types.Dict, closeSrc bool) (*Handle, error) {
	name = expandAbbreviation(name)

	switch name {
	case filter.JPX:
		// Step 3: JPXDecode gets a ReusableStreamDecode layered beneath
		// it, and close_src is forced regardless of what the caller asked
		// for — the RSD layer now owns the underlying source's lifetime.
		rsd := c.newHandle(file, ReusableStreamDecode, types.Dict{}, identityFilter{}, false)
		rsd.Rewindable = false
		jpx := c.newHandle(rsd, filter.JPX, types.Dict{}, identityFilter{}, true)
		jpx.CloseSource = true
		return jpx, nil
	}

	if name == filter.Flate {
		if args.Len() == 0 {
			args = types.NewDict(file.SaveLevel)
		}
		v := types.Boolean(false)
		if c.Cfg != nil {
			v = types.Boolean(c.Cfg.ErrorOnFlateChecksumFailure)
		}
		if err := args.InsertHash("ErrorOnChecksumFailure", v, types.Named); err != nil {
			return nil, err
		}
	}

	f, err := filter.NewFilter(name, toParmsMap(args))
	if err != nil {
		if err == filter.ErrUnsupportedFilter {
			return nil, perrors.New("create_filter", perrors.Undefined, "filter %s", name)
		}
		return nil, err
	}

	h := c.newHandle(file, name, args, f, true)
	h.Rewindable = true // input filters are rewindable (spec §4.D step 4)
	h.CloseSource = closeSrc
	return h, nil
}

// newHandle allocates and registers a new Handle layered over next,
// tagging it with the context's id and save level the way spec §4.D's
// "tag it with the context id and save level" describes.
func (c *Chain) newHandle(next *Handle, name string, parms types.Dict, f filter.Filter, flagRedo bool) *Handle {
	c.nextID++
	h := &Handle{
		ID:        c.nextID,
		Name:      name,
		Parms:     parms,
		Open:      true,
		ContextID: next.ContextID,
		SaveLevel: next.SaveLevel,
		filt:      f,
		next:      next,
	}
	c.handles = append([]*Handle{h}, c.handles...)
	if flagRedo {
		c.lowmemRedoStreams = true
	}
	return h
}

// toParmsMap extracts the integer-valued entries of a decode-parameters
// dict into the plain map pkg/filter's constructors take. Non-integer
// entries (e.g. ErrorOnChecksumFailure, a Boolean) are simply not integer
// parameters any filter implementation reads by this path.
func toParmsMap(d types.Dict) map[string]int {
	if d.Len() == 0 {
		return nil
	}
	m := make(map[string]int, d.Len())
	d.Walk(func(key string, v types.Object) bool {
		if i, ok := v.(types.Integer); ok {
			m[key] = int(i)
		}
		return true
	})
	return m
}
