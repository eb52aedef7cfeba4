package types

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/mechiko/pdfexec/pkg/perrors"
)

var nextDictID uint64

// Entry is one dictionary slot: a Value plus the access-permission and
// save-level tags spec §3 says every value carries. Access/save-level are
// preserved across lookup but ignored by equality (spec §3's Dictionary
// invariant); that asymmetry is why Entry, not bare Object, is what Dict
// stores.
type Entry struct {
	Value     Object
	Access    Access
	SaveLevel int
}

// InsertFlags mirror insert_hash's flag set (spec §4.B).
type InsertFlags int

const (
	// Named marks key as a name. Dict keys are always Go strings here, so
	// InsertHash accepts the flag but performs no check for it.
	Named InsertFlags = 1 << iota
	// DictAccess bypasses the dict's own writability check.
	DictAccess
	// KeyAccess bypasses the key's readability check.
	KeyAccess
)

// Dict represents a PDF dictionary object (spec §3): a mapping of
// interned name to Value, each carrying its own access/save-level tag.
// Physically a Go map stands in for the spec's fixed-capacity
// open-addressed block-with-extension; Go's map already amortizes growth,
// so there is no separate "extension" concept to model — insertion never
// needs an alloc_fn or a chained sentinel slot.
type Dict struct {
	entries   map[string]*Entry
	id        uint64
	Access    Access
	SaveLevel int
}

// NewDict returns an empty dict with full access at the given save level,
// mirroring create_dict's "full permissions... NotVM | save_level(ctx)".
func NewDict(saveLevel int) Dict {
	return Dict{
		entries:   map[string]*Entry{},
		id:        atomic.AddUint64(&nextDictID, 1),
		Access:    AccessAll,
		SaveLevel: saveLevel,
	}
}

// ID returns a process-wide unique identity for d, stable across Go's
// map-by-reference semantics. pkg/ncache's fast-path pointer keys off this
// to validate "is this still the same dict" without comparing maps, which
// Go forbids.
func (d Dict) ID() uint64 { return d.id }

// Len returns the number of live slots.
func (d Dict) Len() int { return len(d.entries) }

// InsertHash places key/value into the dict (insert_hash, spec §4.B).
// save-before-modify (copy-on-write ahead of a save-level boundary) is the
// caller's responsibility — it belongs to the save/restore machinery in
// pkg/exec, not to the dict itself, since only the execution context knows
// the current save level to compare against.
func (d Dict) InsertHash(key string, value Object, flags InsertFlags) error {
	if flags&DictAccess == 0 && !d.Access.Writable() {
		return perrors.New("insert_hash", perrors.InvalidAccess, "dict not writable")
	}
	d.entries[key] = &Entry{Value: value, Access: AccessAll, SaveLevel: d.SaveLevel}
	return nil
}

// ExtractHash is the general-purpose extract_hash: checks access before
// returning the value.
func (d Dict) ExtractHash(key string) (Object, error) {
	e, ok := d.entries[key]
	if !ok {
		return nil, nil
	}
	if !e.Access.Readable() {
		return nil, perrors.New("extract_hash", perrors.InvalidAccess, "key %q not readable", key)
	}
	return e.Value, nil
}

// Entry returns the raw slot for key, or nil if absent. Used by pkg/ncache
// to validate/refresh a NameRecord's fast pointer without going through
// ExtractHash's access check twice.
func (d Dict) Entry(key string) (*Entry, bool) {
	e, ok := d.entries[key]
	return e, ok
}

// RemoveHash marks the slot empty (remove_hash, spec §4.B). Invalidating
// any NameRecord fast pointer referencing this dict+key is the caller's
// responsibility (pkg/ncache observes the removal through its own API).
func (d Dict) RemoveHash(key string, checkAccess bool) error {
	if checkAccess {
		if e, ok := d.entries[key]; ok && !e.Access.Writable() {
			return perrors.New("remove_hash", perrors.InvalidAccess, "key %q not writable", key)
		}
	}
	delete(d.entries, key)
	return nil
}

// Walk calls fn(key, value) for each live slot in unspecified order;
// returning false from fn stops the walk early and Walk returns false.
func (d Dict) Walk(fn func(key string, value Object) bool) bool {
	for k, e := range d.entries {
		if !fn(k, e.Value) {
			return false
		}
	}
	return true
}

// WalkSorted applies the same contract as Walk after pre-sorting keys. The
// caller guarantees no mutation of the dict during the walk.
func (d Dict) WalkSorted(fn func(key string, value Object) bool) bool {
	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn(k, d.entries[k].Value) {
			return false
		}
	}
	return true
}

// Clone performs a shallow key-copy with deep-cloned values, matching
// copy_value's "dictionaries walk all key/value pairs and insert copies
// into a freshly-allocated destination dict" (spec §4.A). Access and
// save-level tags are NOT carried into the clone — a fresh dict always
// starts fully accessible at its own save level, consistent with
// create_dict always producing NotVM|save_level(ctx) regardless of what
// was copied.
func (d Dict) Clone() Object {
	d1 := NewDict(d.SaveLevel)
	for k, e := range d.entries {
		v := e.Value
		if v != nil {
			v = v.Clone()
		}
		d1.entries[k] = &Entry{Value: v, Access: AccessAll, SaveLevel: d1.SaveLevel}
	}
	return d1
}

func (d Dict) String() string {
	parts := make([]string, 0, len(d.entries))
	d.WalkSorted(func(k string, v Object) bool {
		vs := "null"
		if v != nil {
			vs = v.String()
		}
		parts = append(parts, "/"+k+" "+vs)
		return true
	})
	return "<<" + strings.Join(parts, " ") + ">>"
}

func (d Dict) PDFString() string {
	parts := make([]string, 0, len(d.entries))
	d.WalkSorted(func(k string, v Object) bool {
		vs := "null"
		if v != nil {
			vs = v.PDFString()
		}
		parts = append(parts, "/"+k+" "+vs)
		return true
	})
	return "<<" + strings.Join(parts, " ") + ">>"
}
