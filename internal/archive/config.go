package archive

import "fmt"

// InvalidConfigError is returned when a setter rejects a value that is not
// legal for the configuration's format or current method. The configuration
// is left unchanged.
type InvalidConfigError struct {
	Setting string // the configuration field being set
	Value   any    // the rejected value
	Reason  string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Setting, e.Value, e.Reason)
}

// CreatorConfig holds the user's compression intent for a single archive
// creation or update operation. The target format is fixed at construction;
// everything else is mutated through setters that validate eagerly. A config
// is not safe for concurrent use and must not be mutated while a session
// built from it is in flight.
type CreatorConfig struct {
	format Format

	level          Level
	levelSet       bool
	method         Method
	dictionarySize uint32
	solidMode      bool
	updateMode     bool
	cryptHeaders   bool
	password       string
	volumeSize     uint64
}

// NewCreatorConfig returns a configuration for the given format with the
// normal compression level and the format's default method.
func NewCreatorConfig(format Format) *CreatorConfig {
	return &CreatorConfig{
		format: format,
		level:  LevelNormal,
		method: format.DefaultMethod(),
	}
}

func (c *CreatorConfig) Format() Format         { return c.format }
func (c *CreatorConfig) Level() Level           { return c.level }
func (c *CreatorConfig) Method() Method         { return c.method }
func (c *CreatorConfig) DictionarySize() uint32 { return c.dictionarySize }
func (c *CreatorConfig) SolidMode() bool        { return c.solidMode }
func (c *CreatorConfig) UpdateMode() bool       { return c.updateMode }
func (c *CreatorConfig) CryptHeaders() bool     { return c.cryptHeaders }
func (c *CreatorConfig) Password() string       { return c.password }
func (c *CreatorConfig) VolumeSize() uint64     { return c.volumeSize }

// SetLevel sets the compression level. An explicit dictionary size is only
// meaningful for the level that produced it, so it resets to the default.
func (c *CreatorConfig) SetLevel(level Level) {
	c.level = level
	c.levelSet = true
	c.dictionarySize = 0
}

// SetMethod sets the compression method after checking it is legal for the
// format. When the format supports only its single fixed method the request
// is validated but the stored method is left in effect and the dictionary
// size is kept.
func (c *CreatorConfig) SetMethod(method Method) error {
	if !method.SupportedBy(c.format) {
		return &InvalidConfigError{
			Setting: "compression method",
			Value:   method,
			Reason:  fmt.Sprintf("not supported by the %s format", c.format),
		}
	}
	if c.format.HasFeature(MultipleMethods) {
		c.method = method
		c.dictionarySize = 0
	}
	return nil
}

// SetDictionarySize sets an explicit dictionary size for the current method.
// Methods with a fixed dictionary accept the call but keep the default.
func (c *CreatorConfig) SetDictionarySize(size uint32) error {
	if !c.method.SupportsDictionarySize(size) {
		return &InvalidConfigError{
			Setting: "dictionary size",
			Value:   size,
			Reason:  fmt.Sprintf("not supported by the %s method", c.method),
		}
	}
	if !c.method.hasFixedDictionary() {
		c.dictionarySize = size
	}
	return nil
}

// SetSolidMode enables or disables solid-block compression.
func (c *CreatorConfig) SetSolidMode(solid bool) {
	c.solidMode = solid
}

// SetUpdateMode allows or forbids updating an already-existing archive.
func (c *CreatorConfig) SetUpdateMode(update bool) {
	c.updateMode = update
}

// SetVolumeSize sets the per-part byte threshold for multi-volume output.
// Zero means a single output file.
func (c *CreatorConfig) SetVolumeSize(size uint64) {
	c.volumeSize = size
}

// SetPassword sets the password, keeping the previously requested header
// encryption intent. Clearing the password forces header encryption off.
func (c *CreatorConfig) SetPassword(password string) {
	c.SetPasswordWithHeaders(password, c.cryptHeaders)
}

// SetPasswordWithHeaders sets the password and the header encryption intent.
// Headers are only ever encrypted when a password is present.
func (c *CreatorConfig) SetPasswordWithHeaders(password string, cryptHeaders bool) {
	c.password = password
	c.cryptHeaders = password != "" && cryptHeaders
}
