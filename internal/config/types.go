package config

import "fmt"

// FetchMethod selects how a page is interpreted when looking for a release.
type FetchMethod int

const (
	// MethodHTMLScrape parses the page as HTML and uses CSS selectors.
	MethodHTMLScrape FetchMethod = iota
	// MethodJSONAPI parses the page as JSON and uses JSON-path expressions.
	MethodJSONAPI
)

// String returns the ini spelling of the method.
func (m FetchMethod) String() string {
	switch m {
	case MethodHTMLScrape:
		return "html_scrape"
	case MethodJSONAPI:
		return "json_api"
	default:
		return fmt.Sprintf("FetchMethod(%d)", int(m))
	}
}

// ParseFetchMethod parses the value of the "method" key. Empty means html_scrape.
func ParseFetchMethod(s string) (FetchMethod, error) {
	switch s {
	case "", "html_scrape", "html":
		return MethodHTMLScrape, nil
	case "json_api", "json":
		return MethodJSONAPI, nil
	default:
		return 0, fmt.Errorf("unknown fetch method %q (want html_scrape or json_api)", s)
	}
}

// Templates maps template names (without the "template:" prefix) to their raw fields.
type Templates map[string]map[string]string

// Names returns the template names, for error messages.
func (t Templates) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	return names
}

// EntrySpec is the fully resolved description of one tracked artifact.
// It is built fresh for every run and is not modified afterwards.
type EntrySpec struct {
	// Section is the ini section the entry came from.
	Section string
	// Template is the name of the template the section references, if any.
	Template string

	// PageURL is the HTML page or JSON API that advertises releases.
	PageURL string
	// AnchorSelector is a CSS selector (html_scrape) or JSON-path (json_api)
	// identifying candidate download links.
	AnchorSelector string
	// AnchorTextPattern filters candidates. Full match for HTML link text,
	// substring search for JSON candidate URLs.
	AnchorTextPattern string
	// VersionSelector locates the version string on the page.
	VersionSelector string

	// ArchiveMemberPattern is a regex matched against base names inside archives.
	ArchiveMemberPattern string
	// DesiredFilename is where the artifact ends up.
	DesiredFilename string
	// RecordedVersion is the version last installed; empty when unknown.
	RecordedVersion string

	FetchMethod FetchMethod

	// Optional verification of the downloaded artifact.
	ChecksumSuffix  string
	SignatureSuffix string
	Keyring         string
}

// WantsVerification reports whether any verification sidecar is configured.
func (e *EntrySpec) WantsVerification() bool {
	return e.ChecksumSuffix != "" || e.SignatureSuffix != ""
}
