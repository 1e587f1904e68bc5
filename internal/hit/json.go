package hit

import (
	"fmt"
	"regexp"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	pkgerrors "github.com/pkg/errors"

	"github.com/cjrh/lifter/internal/config"
)

// JSONExtractor reads a JSON release API with JSON-path expressions.
//
// VersionSelector must yield a string. AnchorSelector yields candidate URLs;
// the first containing a match for AnchorTextPattern is the download URL.
// Unlike HTMLExtractor, the pattern is searched for rather than matched
// against the whole candidate, and missing data is an error.
type JSONExtractor struct {
	logger config.Logger
}

// NewJSONExtractor creates a JSONExtractor.
func NewJSONExtractor(logger config.Logger) *JSONExtractor {
	return &JSONExtractor{logger: config.OrNop(logger)}
}

// Extract implements Extractor.
func (x *JSONExtractor) Extract(pageURL, body string, spec *config.EntrySpec) (*Hit, error) {
	section := spec.Section

	pattern, err := regexp.Compile(spec.AnchorTextPattern)
	if err != nil {
		return nil, pkgerrors.WithStack(&config.ConfigError{
			Section: section,
			Field:   config.KeyAnchorText,
			Err:     fmt.Errorf("%w: %v", config.ErrMalformedField, err),
		})
	}

	data, err := oj.ParseString(body)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "parse json from %s", pageURL)
	}

	versions, err := evaluate(section, config.KeyVersionTag, spec.VersionSelector, data)
	if err != nil {
		return nil, err
	}
	version, ok := versions[0].(string)
	if !ok {
		return nil, pkgerrors.Errorf("section %q: version_tag %q selected %T, want a string", section, spec.VersionSelector, versions[0])
	}

	candidates, err := evaluate(section, config.KeyAnchorTag, spec.AnchorSelector, data)
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		candidate, ok := c.(string)
		if !ok {
			continue
		}
		x.logger.Debug("possible download url", "section", section, "url", candidate)
		if pattern.MatchString(candidate) {
			x.logger.Info("found a match", "section", section, "version", version, "download_url", candidate)
			return &Hit{Version: version, DownloadURL: candidate}, nil
		}
	}

	x.logger.Warn("matched nothing", "section", section, "url", pageURL)
	return nil, nil
}

// evaluate runs a JSON-path expression and requires at least one result.
func evaluate(section, field, expr string, data any) ([]any, error) {
	path, err := jp.ParseString(expr)
	if err != nil {
		return nil, pkgerrors.WithStack(&config.ConfigError{
			Section: section,
			Field:   field,
			Err:     fmt.Errorf("%w: json path %q: %v", config.ErrMalformedField, expr, err),
		})
	}
	results := path.Get(data)
	if len(results) == 0 {
		return nil, pkgerrors.Errorf("section %q: %s %q selected nothing", section, field, expr)
	}
	return results, nil
}
