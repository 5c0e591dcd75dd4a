package archive

import "strconv"

// Property is a single name/value pair in the engine's property vocabulary.
// Values are bool, uint32 or string.
type Property struct {
	Name  string
	Value any
}

// Engine property names. The method and dictionary keys are format and
// method dependent; seven-zip spells them with a leading stream index.
const (
	propHeaderEncryption = "he"
	propLevel            = "x"
	propSolid            = "s"

	propMethod         = "m"
	propMethodSevenZip = "0"

	propDictionary         = "d"
	propDictionarySevenZip = "0d"
	propMemory             = "mem"
	propMemorySevenZip     = "0mem"
)

// dictionaryProp selects the dictionary-size key: PPMd sizes its model
// memory rather than a dictionary, and seven-zip prefixes the key with the
// coder index.
func dictionaryProp(format Format, method Method) string {
	if format == SevenZip {
		if method == PPMd {
			return propMemorySevenZip
		}
		return propDictionarySevenZip
	}
	if method == PPMd {
		return propMemory
	}
	return propDictionary
}

// BuildProperties serializes the configuration into the ordered property
// list the engine expects. Only settings the format supports and that
// deviate from the engine's own defaults are emitted; a fully default
// configuration yields an empty list and no property call at all.
func BuildProperties(cfg *CreatorConfig) []Property {
	var props []Property
	format := cfg.Format()

	if cfg.CryptHeaders() && format.HasFeature(HeaderEncryption) {
		props = append(props, Property{Name: propHeaderEncryption, Value: true})
	}

	methodOverride := format.HasFeature(MultipleMethods) && cfg.Method() != format.DefaultMethod()
	if format.HasFeature(CompressionLevel) && (cfg.levelSet || methodOverride) {
		props = append(props, Property{Name: propLevel, Value: uint32(cfg.Level())})

		if methodOverride {
			name := propMethod
			if format == SevenZip {
				name = propMethodSevenZip
			}
			props = append(props, Property{Name: name, Value: cfg.Method().String()})
		}
	}

	if format.HasFeature(SolidArchive) && cfg.SolidMode() {
		props = append(props, Property{Name: propSolid, Value: true})
	}

	if size := cfg.DictionarySize(); size != 0 {
		props = append(props, Property{
			Name:  dictionaryProp(format, cfg.Method()),
			Value: strconv.FormatUint(uint64(size), 10) + "b",
		})
	}

	return props
}
