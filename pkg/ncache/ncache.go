// Package ncache implements the process-wide interned name cache (spec
// §3, §4.B, Component B): a set of byte strings mapping to a *NameRecord*
// that carries the bytes, a one-entry fast-path pointer to "last
// dictionary value found under this name", and a save-level stamp so
// restores can invalidate that fast path.
//
// There is no teacher analogue — pdfcpu represents names as a bare Go
// string (types.Name) with no interning layer, since nothing in pdfcpu
// needs pointer-equal name comparison or a per-name fast-path cache. This
// package is grounded directly in spec §4.B and in the original RIP
// core's name-table design referenced by pdfhtname.c, expressed in the
// teacher's style: a guarded map plus small accessor methods, errors
// built with perrors.New, and named-logger Trace calls on the
// hot paths (cache hit/miss) the way pdfcpu logs cache activity.
package ncache

import (
	"sync"

	"github.com/mechiko/pdfexec/pkg/log"
	"github.com/mechiko/pdfexec/pkg/perrors"
	"github.com/mechiko/pdfexec/pkg/types"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Short/long name length caps (spec §3: "Short-name (≤255 byte) and
// long-name (≤65535 byte) sets are logically distinct").
const (
	MaxShortName = types.MaxShortName
	MaxLongName  = types.MaxLongName
)

// NameRecord is the interned representation of a byte-string name. Two
// names with equal bytes always resolve to the same *NameRecord, so
// comparing NameRecord pointers is equivalent to comparing name equality
// (spec §3's "a key of type name is interned").
type NameRecord struct {
	Bytes []byte

	mu            sync.Mutex
	fastDictID    uint64
	fastKey       string
	fastEntry     *types.Entry
	fastSaveLevel int
	fastValid     bool
}

// Name returns the Go string form of the record's bytes.
func (nr *NameRecord) Name() types.Name {
	return types.Name(nr.Bytes)
}

// setFast records dict/key → entry as the fast path, stamped with the
// save level in effect at the time (spec §3: "a save-level stamp so
// restores can invalidate the fast path").
func (nr *NameRecord) setFast(dictID uint64, key string, entry *types.Entry, saveLevel int) {
	nr.mu.Lock()
	defer nr.mu.Unlock()
	nr.fastDictID = dictID
	nr.fastKey = key
	nr.fastEntry = entry
	nr.fastSaveLevel = saveLevel
	nr.fastValid = true
}

// fast returns the cached entry if it's still valid for dict/key at
// saveLevel, else reports a miss. The fast pointer is advisory (spec
// §4.B: "if stale, the slow path still yields the correct result"), so a
// miss here is never an error, only a cue to fall back.
func (nr *NameRecord) fast(dictID uint64, key string, saveLevel int) (*types.Entry, bool) {
	nr.mu.Lock()
	defer nr.mu.Unlock()
	if !nr.fastValid || nr.fastDictID != dictID || nr.fastKey != key || nr.fastSaveLevel != saveLevel {
		return nil, false
	}
	return nr.fastEntry, true
}

// invalidate clears the fast pointer. InvalidateFast is its only caller.
func (nr *NameRecord) invalidate() {
	nr.mu.Lock()
	defer nr.mu.Unlock()
	nr.fastValid = false
}

// Cache is the process-wide interned name set (spec §3's "Name Cache"),
// split into short and long tables as the spec requires.
type Cache struct {
	mu    sync.Mutex
	short map[string]*NameRecord
	long  map[string]*NameRecord
}

// New returns an empty name cache.
func New() *Cache {
	return &Cache{
		short: make(map[string]*NameRecord),
		long:  make(map[string]*NameRecord),
	}
}

// Intern looks up bytes in the appropriate set (short or long, based on
// length) and creates a NameRecord if absent (spec §4.B's intern). b is
// first normalized to Unicode NFC so two byte-distinct but canonically
// equivalent names (e.g. a precomposed accented letter vs. the base
// letter plus a combining mark) intern to the same record, matching
// names a PDF writer may have produced either way.
func (c *Cache) Intern(b []byte) (*NameRecord, error) {
	if len(b) > MaxLongName {
		return nil, perrors.New("intern", perrors.LimitCheck, "name length %d exceeds %d", len(b), MaxLongName)
	}
	if normalized, _, err := transform.Bytes(norm.NFC, b); err == nil {
		b = normalized
	}

	table := c.long
	if len(b) <= MaxShortName {
		table = c.short
	}

	key := string(b)
	c.mu.Lock()
	defer c.mu.Unlock()
	if nr, ok := table[key]; ok {
		if log.TraceEnabled() {
			log.Trace.Printf("ncache: intern hit %q\n", key)
		}
		return nr, nil
	}
	nr := &NameRecord{Bytes: append([]byte(nil), b...)}
	table[key] = nr
	if log.TraceEnabled() {
		log.Trace.Printf("ncache: intern miss, created %q\n", key)
	}
	return nr, nil
}

// InternString is a convenience wrapper around Intern for Go strings.
func (c *Cache) InternString(s string) (*NameRecord, error) {
	return c.Intern([]byte(s))
}

// FastExtractHash is extract_hash's name-keyed fast path (spec §4.B):
// it skips the dict's full permission check and uses nr's fast pointer
// when valid for this dict+save level, falling back to the dict's slow
// ExtractHash path on a miss and re-priming the fast pointer.
func FastExtractHash(d types.Dict, nr *NameRecord, saveLevel int) (types.Object, error) {
	key := string(nr.Bytes)
	if e, ok := nr.fast(d.ID(), key, saveLevel); ok {
		// A removal or re-insert replaces the dict's slot, so a cached
		// pointer that no longer matches it is stale: use the slow path.
		if cur, present := d.Entry(key); present && cur == e {
			return e.Value, nil
		}
	}

	e, ok := d.Entry(key)
	if !ok {
		return nil, nil
	}
	nr.setFast(d.ID(), key, e, saveLevel)
	return e.Value, nil
}

// InvalidateFast clears nr's fast pointer. pkg/types cannot import this
// package, so Dict mutators do not call it; FastExtractHash detects a
// removed or replaced slot on its own.
func InvalidateFast(nr *NameRecord) {
	nr.invalidate()
}
