package config

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"github.com/cjrh/lifter/internal/transaction"
)

// loadOptions keeps regex-bearing values intact: '#' and ';' are not inline
// comments and a trailing backslash is not a line continuation.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment: true,
	IgnoreContinuation:  true,
	KeyValueDelimiters:  "=",
}

// Store is the ini file holding tracked sections and templates.
type Store struct {
	path   string
	logger Logger

	mu   sync.RWMutex
	file *ini.File
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the store's logger.
func WithStoreLogger(l Logger) StoreOption {
	return func(s *Store) {
		s.logger = OrNop(l)
	}
}

// LoadStore parses the ini file at path.
func LoadStore(path string, opts ...StoreOption) (*Store, error) {
	s := &Store{path: path, logger: NopLogger()}
	for _, opt := range opts {
		opt(s)
	}

	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "load config %s", path)
	}
	s.file = f

	s.logger.Debug("loaded config", "path", path, "sections", len(s.Sections()), "templates", len(s.Templates()))
	return s, nil
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string {
	return s.path
}

// Sections returns the tracked artifact sections in declaration order.
// The DEFAULT section and template sections are excluded.
func (s *Store) Sections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for _, sec := range s.file.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection || strings.HasPrefix(name, TemplatePrefix) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Section returns a copy of the raw fields of the named section.
func (s *Store) Section(name string) (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == ini.DefaultSection || strings.HasPrefix(name, TemplatePrefix) {
		return nil, false
	}
	sec, err := s.file.GetSection(name)
	if err != nil {
		return nil, false
	}
	return sectionFields(sec), true
}

// Templates returns all template sections keyed by name without the
// "template:" prefix.
func (s *Store) Templates() Templates {
	s.mu.RLock()
	defer s.mu.RUnlock()

	templates := make(Templates)
	for _, sec := range s.file.Sections() {
		name, ok := strings.CutPrefix(sec.Name(), TemplatePrefix)
		if !ok {
			continue
		}
		templates[name] = sectionFields(sec)
	}
	return templates
}

// SetVersion records version for section on disk.
//
// The file is re-read under the lock so edits made since LoadStore (by this
// process or another) are kept; only the one key changes.
func (s *Store) SetVersion(ctx context.Context, section, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *ini.File
	err := transaction.Update(ctx, s.path, func(current []byte) ([]byte, error) {
		f, err := ini.LoadSources(loadOptions, current)
		if err != nil {
			return nil, fmt.Errorf("reparse config: %w", err)
		}
		sec, err := f.GetSection(section)
		if err != nil {
			return nil, &ConfigError{Section: section, Err: ErrUnknownSection}
		}
		sec.Key(KeyVersion).SetValue(version)

		var buf bytes.Buffer
		if _, err := f.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("serialize config: %w", err)
		}
		updated = f
		return buf.Bytes(), nil
	})
	if err != nil {
		return pkgerrors.WithStack(err)
	}

	s.file = updated
	s.logger.Debug("updated config file", "section", section, "version", version)
	return nil
}

func sectionFields(sec *ini.Section) map[string]string {
	fields := make(map[string]string, len(sec.Keys()))
	for _, key := range sec.Keys() {
		fields[key.Name()] = key.Value()
	}
	return fields
}
