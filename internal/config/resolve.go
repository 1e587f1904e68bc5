package config

import (
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Resolver turns a section's raw fields into an EntrySpec.
type Resolver struct {
	builtins map[string]string
	logger   Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithBuiltins adds placeholder values with the lowest precedence, such as
// the platform's os and arch. Section and template fields override them.
func WithBuiltins(vars map[string]string) ResolverOption {
	return func(r *Resolver) {
		for k, v := range vars {
			r.builtins[k] = v
		}
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(l Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = OrNop(l)
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		builtins: make(map[string]string),
		logger:   NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve merges the referenced template (if any) with the section's own
// fields and applies defaults.
//
// A section without a page_url is not an error: Resolve logs a warning and
// returns (nil, nil) so the caller can skip it.
func (r *Resolver) Resolve(section string, fields map[string]string, templates Templates) (*EntrySpec, error) {
	sectionVars := r.overlay(fields)
	resolved := make(map[string]string)

	if name, ok := fields[KeyTemplate]; ok {
		r.logger.Debug("section uses a template", "section", section, "template", name)
		tmpl, ok := templates[name]
		if !ok {
			available := templates.Names()
			sort.Strings(available)
			return nil, pkgerrors.WithStack(&ConfigError{
				Section: section,
				Field:   KeyTemplate,
				Err:     fmt.Errorf("%w: %q (available: %s)", ErrTemplateNotFound, name, strings.Join(available, ", ")),
			})
		}
		for key, raw := range tmpl {
			value, err := Substitute(raw, sectionVars)
			if err != nil {
				return nil, pkgerrors.WithStack(&ConfigError{Section: section, Field: key, Err: err})
			}
			resolved[key] = value
		}
	}

	// Section fields win over template fields and see the template results.
	vars := r.overlay(resolved, fields)
	for key, raw := range fields {
		if key == KeyTemplate {
			resolved[key] = raw
			continue
		}
		value, err := Substitute(raw, vars)
		if err != nil {
			return nil, pkgerrors.WithStack(&ConfigError{Section: section, Field: key, Err: err})
		}
		resolved[key] = value
	}

	if resolved[KeyPageURL] == "" {
		r.logger.Warn("section is missing required field", "section", section, "field", KeyPageURL)
		return nil, nil
	}

	method, err := ParseFetchMethod(resolved[KeyMethod])
	if err != nil {
		return nil, pkgerrors.WithStack(&ConfigError{
			Section: section,
			Field:   KeyMethod,
			Err:     fmt.Errorf("%w: %v", ErrMalformedField, err),
		})
	}

	spec := &EntrySpec{
		Section:              section,
		Template:             resolved[KeyTemplate],
		PageURL:              resolved[KeyPageURL],
		AnchorSelector:       resolved[KeyAnchorTag],
		AnchorTextPattern:    resolved[KeyAnchorText],
		VersionSelector:      resolved[KeyVersionTag],
		ArchiveMemberPattern: resolved[KeyArchiveMember],
		DesiredFilename:      resolved[KeyDesiredFilename],
		RecordedVersion:      resolved[KeyVersion],
		FetchMethod:          method,
		ChecksumSuffix:       resolved[KeyChecksumSuffix],
		SignatureSuffix:      resolved[KeySignatureSuffix],
		Keyring:              resolved[KeyKeyring],
	}
	if spec.ArchiveMemberPattern == "" {
		spec.ArchiveMemberPattern = section
	}
	if spec.DesiredFilename == "" {
		spec.DesiredFilename = spec.ArchiveMemberPattern
	}

	r.logger.Debug("substitutions complete", "section", section, "page_url", spec.PageURL, "method", spec.FetchMethod)
	return spec, nil
}

// overlay layers maps over the builtins; later maps win.
func (r *Resolver) overlay(layers ...map[string]string) map[string]string {
	vars := make(map[string]string, len(r.builtins))
	for k, v := range r.builtins {
		vars[k] = v
	}
	for _, layer := range layers {
		for k, v := range layer {
			vars[k] = v
		}
	}
	return vars
}
