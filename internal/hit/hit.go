// Package hit finds the newest release on a fetched page: the version string
// and the download URL of the wanted artifact.
package hit

import (
	"net/url"

	pkgerrors "github.com/pkg/errors"

	"github.com/cjrh/lifter/internal/config"
)

// Hit is a release found on a page.
type Hit struct {
	Version     string
	DownloadURL string
}

// Extractor finds a Hit in a page body. A nil Hit with a nil error means the
// page had nothing matching.
type Extractor interface {
	Extract(pageURL, body string, spec *config.EntrySpec) (*Hit, error)
}

// For returns the Extractor for method.
func For(method config.FetchMethod, logger config.Logger) (Extractor, error) {
	switch method {
	case config.MethodHTMLScrape:
		return NewHTMLExtractor(logger), nil
	case config.MethodJSONAPI:
		return NewJSONExtractor(logger), nil
	default:
		return nil, pkgerrors.Errorf("no extractor for fetch method %v", method)
	}
}

// ResolveURL makes href absolute relative to pageURL. Absolute hrefs are
// returned unchanged.
func ResolveURL(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "parse page url %q", pageURL)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "parse href %q", href)
	}
	return base.ResolveReference(ref).String(), nil
}
