// Package profile loads compression profiles: small YAML documents that
// describe a complete compression configuration for the CLI.
package profile

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/almarkwork/sevenpack/internal/archive"
)

// Profile is the on-disk shape of a compression configuration. Passwords
// are deliberately absent; they are prompted for interactively.
type Profile struct {
	Format         string  `yaml:"format" validate:"required"`
	Level          *uint32 `yaml:"level,omitempty" validate:"omitempty,lte=9"`
	Method         string  `yaml:"method,omitempty"`
	DictionarySize uint32  `yaml:"dictionary_size,omitempty"`
	Solid          bool    `yaml:"solid,omitempty"`
	Update         bool    `yaml:"update,omitempty"`
	VolumeSize     uint64  `yaml:"volume_size,omitempty"`
	EncryptHeaders bool    `yaml:"encrypt_headers,omitempty"`
}

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

// Parse unmarshals and validates a YAML profile document.
func Parse(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	if err := defaultValidator.Struct(p); err != nil {
		return Profile{}, fmt.Errorf("failed to validate profile: %w", err)
	}

	return p, nil
}

// Build turns the profile into a creator configuration, running every value
// through the validated setters so illegal combinations are rejected with
// the same errors the library reports.
func (p Profile) Build() (*archive.CreatorConfig, error) {
	format, ok := archive.ParseFormat(p.Format)
	if !ok {
		return nil, fmt.Errorf("unknown archive format %q", p.Format)
	}

	cfg := archive.NewCreatorConfig(format)

	if p.Level != nil {
		cfg.SetLevel(archive.Level(*p.Level))
	}
	if p.Method != "" {
		method, ok := archive.ParseMethod(p.Method)
		if !ok {
			return nil, fmt.Errorf("unknown compression method %q", p.Method)
		}
		if err := cfg.SetMethod(method); err != nil {
			return nil, err
		}
	}
	if p.DictionarySize != 0 {
		if err := cfg.SetDictionarySize(p.DictionarySize); err != nil {
			return nil, err
		}
	}
	cfg.SetSolidMode(p.Solid)
	cfg.SetUpdateMode(p.Update)
	cfg.SetVolumeSize(p.VolumeSize)

	// EncryptHeaders is not applied here: header encryption only takes
	// effect together with a password, which the caller supplies via
	// SetPasswordWithHeaders once it has prompted for one.

	return cfg, nil
}
