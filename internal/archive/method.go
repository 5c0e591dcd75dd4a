package archive

import (
	"slices"

	"github.com/samber/lo"
)

// Method identifies the compression algorithm applied to archive entries.
type Method int

const (
	Copy Method = iota + 1
	PPMd
	LZMA
	LZMA2
	BZip2Method
	Deflate
	Deflate64
)

// Level is the ordinal compression level passed to the engine.
type Level uint32

const (
	LevelNone    Level = 0
	LevelFastest Level = 1
	LevelFast    Level = 3
	LevelNormal  Level = 5
	LevelMax     Level = 7
	LevelUltra   Level = 9
)

// Dictionary size bounds per method. Methods absent from the bounds table
// have no configurable dictionary and accept any value.
const (
	maxLZMADictionary   = 1536 << 20 // 1536 MiB
	maxPPMdDictionary   = 1 << 30    // 1 GiB
	maxBZip2Dictionary  = 900 << 10  // 900 KiB
	deflate64Dictionary = 1 << 16    // exactly 64 KiB
	deflateDictionary   = 1 << 15    // exactly 32 KiB
)

// methodNames holds the canonical spellings the engine expects in method
// properties and diagnostics.
var methodNames = map[Method]string{
	Copy:        "Copy",
	PPMd:        "PPMd",
	LZMA:        "LZMA",
	LZMA2:       "LZMA2",
	BZip2Method: "BZip2",
	Deflate:     "Deflate",
	Deflate64:   "Deflate64",
}

// String returns the canonical display name of the method. Unknown methods
// yield the empty string; validated configurations never produce one.
func (m Method) String() string {
	return methodNames[m]
}

// methodFormats is the method/format compatibility table. A method absent
// from the table is legal for every format.
var methodFormats = map[Method][]Format{
	Copy:        {SevenZip, Zip, Tar, Wim},
	PPMd:        {SevenZip, Zip},
	LZMA:        {SevenZip, Zip},
	LZMA2:       {SevenZip, Xz},
	BZip2Method: {SevenZip, BZip2, Zip},
	Deflate:     {GZip, Zip},
	Deflate64:   {Zip},
}

// SupportedBy reports whether the method may be used with the given format.
func (m Method) SupportedBy(f Format) bool {
	allowed, ok := methodFormats[m]
	if !ok {
		return true
	}
	for _, candidate := range allowed {
		if candidate == f {
			return true
		}
	}
	return false
}

// SupportsDictionarySize reports whether the given dictionary size is legal
// for the method. The LZMA family, PPMd and BZip2 have upper bounds; the
// deflate family has a fixed dictionary and accepts only that exact size;
// every other method has no configurable dictionary and accepts anything.
func (m Method) SupportsDictionarySize(size uint32) bool {
	switch m {
	case LZMA, LZMA2:
		return size <= maxLZMADictionary
	case PPMd:
		return size <= maxPPMdDictionary
	case BZip2Method:
		return size <= maxBZip2Dictionary
	case Deflate64:
		return size == deflate64Dictionary
	case Deflate:
		return size == deflateDictionary
	default:
		return true
	}
}

// hasFixedDictionary reports whether the method ignores explicit dictionary
// sizes entirely: copy has no dictionary and the deflate family's is baked
// into the format.
func (m Method) hasFixedDictionary() bool {
	return m == Copy || m == Deflate || m == Deflate64
}

// ParseMethod maps a display name back to its method tag.
func ParseMethod(name string) (Method, bool) {
	for m, spelled := range methodNames {
		if spelled == name {
			return m, true
		}
	}
	return 0, false
}

// MethodNames lists the known method display names, sorted.
func MethodNames() []string {
	names := lo.Values(methodNames)
	slices.Sort(names)
	return names
}
