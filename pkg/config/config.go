// Package config holds the execution core's parameter surface (spec §6): a
// small set of named values handed to an execution context. Consumers never
// see individual keys — they hold a *Configuration and read its fields
// directly, the same shape as pdfcpu's model.Configuration. Of these fields,
// pkg/xref reads OptimizedPDFCacheSize (through XRefCacheSize) and
// pkg/streamchain reads ErrorOnFlateChecksumFailure; the others are loaded
// and written but not read by any package in this module.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Configuration is the parameter surface handed to BeginExecutionContext.
// Field names and defaults mirror spec §6; the yaml tags let it be loaded
// from a config.yml the way pdfcpu loads its own.
type Configuration struct {
	// XRefCacheLifetime is a page count for how long an xref cache entry
	// may go without being re-accessed (spec §4.C). No package reads it:
	// pkg/xref's end-of-page sweep reclaims every entry not accessed on the
	// current page, whatever this value is.
	XRefCacheLifetime int `yaml:"xrefCacheLifetime"`

	// ErrorOnFlateChecksumFailure turns a FlateDecode Adler-32 mismatch
	// into a hard error instead of a logged warning (spec §4.D).
	ErrorOnFlateChecksumFailure bool `yaml:"errorOnFlateChecksumFailure"`

	// ErrorOnPDFRepair turns structural repair of a damaged xref table
	// into a hard error instead of a best-effort rebuild.
	ErrorOnPDFRepair bool `yaml:"errorOnPdfRepair"`

	// PDFXVerifyExternalProfileCheckSums requires an external ICC
	// profile's checksum (when PDF/X output intent references one) to
	// match before the profile is trusted.
	PDFXVerifyExternalProfileCheckSums bool `yaml:"pdfxVerifyExternalProfileCheckSums"`

	// SizePageToBoundingBox clips a page's reported size to its content
	// bounding box rather than its MediaBox.
	SizePageToBoundingBox bool `yaml:"sizePageToBoundingBox"`

	// OptimizedPDFScanLimitPercent bounds how much of a stream a
	// sweep may scan, as a percentage of the stream's measured length,
	// before giving up and treating it as unsweepable.
	OptimizedPDFScanLimitPercent int `yaml:"optimizedPdfScanLimitPercent"`

	// OptimizedPDFCacheSize overrides the xref cache bucket count
	// (spec §4.C's XREF_CACHE_SIZE) when non-zero; zero means use the
	// compiled-in default of 256.
	OptimizedPDFCacheSize int `yaml:"optimizedPdfCacheSize"`

	// OptimizedPDFScanWindow bounds how many objects a single sweep
	// pass may examine before yielding.
	OptimizedPDFScanWindow int `yaml:"optimizedPdfScanWindow"`

	// OptimizedPDFImageThreshold is the byte size above which an image
	// stream is treated as purgeable-first during a low-memory sweep.
	OptimizedPDFImageThreshold int `yaml:"optimizedPdfImageThreshold"`
}

// defaultConfiguration mirrors newDefaultConfiguration in the teacher:
// the values that take effect whenever no config.yml is in play.
func defaultConfiguration() *Configuration {
	return &Configuration{
		XRefCacheLifetime:                  10,
		ErrorOnFlateChecksumFailure:        true,
		ErrorOnPDFRepair:                   false,
		PDFXVerifyExternalProfileCheckSums: false,
		SizePageToBoundingBox:              false,
		OptimizedPDFScanLimitPercent:       100,
		OptimizedPDFCacheSize:              0,
		OptimizedPDFScanWindow:             0,
		OptimizedPDFImageThreshold:         1 << 20,
	}
}

// NewDefaultConfiguration returns the core's default parameter surface.
func NewDefaultConfiguration() *Configuration {
	c := *defaultConfiguration()
	return &c
}

// Load reads a YAML configuration from path and overlays it on top of the
// default configuration, the same ensure-default-then-overlay shape as the
// teacher's EnsureDefaultConfigAt/loadedConfig pair, minus font/cert
// directory provisioning which has no owning component here.
func Load(path string) (*Configuration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	return parse(b)
}

func parse(b []byte) (*Configuration, error) {
	var raw Configuration
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, errors.Wrap(err, "config: parse yaml")
	}
	c := defaultConfiguration()
	overlay(c, &raw)
	return c, nil
}

// overlay copies raw's fields onto c. Since YAML unmarshal zeroes unset
// fields, a zero in raw is indistinguishable from "not present in the
// file". Every int field is taken from raw only when non-zero, leaving c's
// default otherwise. The bool fields are copied unconditionally, so a bool
// missing from the file reads as false, including
// ErrorOnFlateChecksumFailure, whose default is true. Write emits every
// field, so a file it produced loads back unchanged.
func overlay(c, raw *Configuration) {
	if raw.XRefCacheLifetime != 0 {
		c.XRefCacheLifetime = raw.XRefCacheLifetime
	}
	c.ErrorOnFlateChecksumFailure = raw.ErrorOnFlateChecksumFailure
	c.ErrorOnPDFRepair = raw.ErrorOnPDFRepair
	c.PDFXVerifyExternalProfileCheckSums = raw.PDFXVerifyExternalProfileCheckSums
	c.SizePageToBoundingBox = raw.SizePageToBoundingBox
	if raw.OptimizedPDFScanLimitPercent != 0 {
		c.OptimizedPDFScanLimitPercent = raw.OptimizedPDFScanLimitPercent
	}
	if raw.OptimizedPDFCacheSize != 0 {
		c.OptimizedPDFCacheSize = raw.OptimizedPDFCacheSize
	}
	if raw.OptimizedPDFScanWindow != 0 {
		c.OptimizedPDFScanWindow = raw.OptimizedPDFScanWindow
	}
	if raw.OptimizedPDFImageThreshold != 0 {
		c.OptimizedPDFImageThreshold = raw.OptimizedPDFImageThreshold
	}
}

// Write serializes c as YAML to path, the way the teacher persists
// config.yml via EnsureDefaultConfigAt.
func Write(c *Configuration, path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "config: marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "config: write %s", path)
	}
	return nil
}

// XRefCacheSize returns the effective xref cache bucket count: the
// configured override if set, else the compiled-in default of 256
// (spec §4.C's XREF_CACHE_SIZE).
func (c *Configuration) XRefCacheSize() int {
	if c.OptimizedPDFCacheSize > 0 {
		return c.OptimizedPDFCacheSize
	}
	return 256
}
