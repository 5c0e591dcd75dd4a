// Package archive models the configuration surface of archive creation:
// container formats and their capabilities, compression methods and their
// legality rules, and the mutable creator configuration that is serialized
// into engine properties.
package archive

import (
	"slices"

	"github.com/samber/lo"
)

// Format identifies an archive container type.
type Format int

const (
	SevenZip Format = iota + 1
	Zip
	Tar
	Wim
	GZip
	BZip2
	Xz
)

// Feature is a capability an archive format may support.
type Feature uint8

const (
	// MultipleFiles marks formats that can hold more than one entry. Only
	// these formats can be updated in place.
	MultipleFiles Feature = 1 << iota

	// CompressionLevel marks formats with a configurable compression level.
	CompressionLevel

	// SolidArchive marks formats supporting solid-block compression.
	SolidArchive

	// MultipleMethods marks formats that accept a compression method other
	// than their default one.
	MultipleMethods

	// HeaderEncryption marks formats that can encrypt archive metadata.
	HeaderEncryption
)

type formatInfo struct {
	name          string
	extension     string
	features      Feature
	defaultMethod Method
}

// The catalog is a closed set: every supported container and its fixed
// capabilities, looked up by tag and never mutated at runtime.
var formats = map[Format]formatInfo{
	SevenZip: {
		name:          "7z",
		extension:     ".7z",
		features:      MultipleFiles | CompressionLevel | SolidArchive | MultipleMethods | HeaderEncryption,
		defaultMethod: LZMA2,
	},
	Zip: {
		name:          "zip",
		extension:     ".zip",
		features:      MultipleFiles | CompressionLevel | MultipleMethods,
		defaultMethod: Deflate,
	},
	Tar: {
		name:          "tar",
		extension:     ".tar",
		features:      MultipleFiles,
		defaultMethod: Copy,
	},
	Wim: {
		name:          "wim",
		extension:     ".wim",
		features:      MultipleFiles,
		defaultMethod: Copy,
	},
	GZip: {
		name:          "gzip",
		extension:     ".gz",
		features:      CompressionLevel,
		defaultMethod: Deflate,
	},
	BZip2: {
		name:          "bzip2",
		extension:     ".bz2",
		features:      CompressionLevel,
		defaultMethod: BZip2Method,
	},
	Xz: {
		name:          "xz",
		extension:     ".xz",
		features:      CompressionLevel,
		defaultMethod: LZMA2,
	},
}

func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	return "unknown"
}

// Extension returns the canonical file extension for the format, including
// the leading dot.
func (f Format) Extension() string {
	return formats[f].extension
}

// HasFeature reports whether the format supports the given capability.
func (f Format) HasFeature(feature Feature) bool {
	return formats[f].features&feature != 0
}

// DefaultMethod returns the compression method the format uses when no
// explicit method is configured.
func (f Format) DefaultMethod() Method {
	return formats[f].defaultMethod
}

// ParseFormat maps a format name (as spelled by String) back to its tag.
func ParseFormat(name string) (Format, bool) {
	for f, info := range formats {
		if info.name == name {
			return f, true
		}
	}
	return 0, false
}

// FormatNames lists the catalog's format names, sorted.
func FormatNames() []string {
	names := lo.MapToSlice(formats, func(_ Format, info formatInfo) string {
		return info.name
	})
	slices.Sort(names)
	return names
}
