package config

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound is returned when a section references an unknown template.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrMalformedField is returned when a field cannot be substituted or parsed.
	ErrMalformedField = errors.New("malformed field")
	// ErrUnknownSection is returned when a section is not present in the store.
	ErrUnknownSection = errors.New("unknown section")
)

// ConfigError describes a problem with one section's configuration.
type ConfigError struct {
	Section string // empty when raised outside the resolver
	Field   string // may be empty
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("field %q: %v", e.Field, e.Err)
	}
	if e.Field == "" {
		return fmt.Sprintf("section %q: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("section %q, field %q: %v", e.Section, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
