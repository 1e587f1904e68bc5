package hit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/cjrh/lifter/internal/config"
)

// HTMLExtractor scrapes an HTML release page with CSS selectors.
//
// Candidate links are the elements matching AnchorSelector, in document
// order. The first one whose text fully matches AnchorTextPattern supplies
// the download URL; the first element matching VersionSelector anywhere in
// the document supplies the version.
type HTMLExtractor struct {
	logger config.Logger
}

// NewHTMLExtractor creates an HTMLExtractor.
func NewHTMLExtractor(logger config.Logger) *HTMLExtractor {
	return &HTMLExtractor{logger: config.OrNop(logger)}
}

// Extract implements Extractor.
func (x *HTMLExtractor) Extract(pageURL, body string, spec *config.EntrySpec) (*Hit, error) {
	section := spec.Section

	pattern, err := regexp.Compile(`^(?:` + spec.AnchorTextPattern + `)$`)
	if err != nil {
		return nil, pkgerrors.WithStack(&config.ConfigError{
			Section: section,
			Field:   config.KeyAnchorText,
			Err:     fmt.Errorf("%w: %v", config.ErrMalformedField, err),
		})
	}

	anchors, err := cascadia.Compile(spec.AnchorSelector)
	if err != nil {
		x.logger.Warn("parser error in anchor selector", "section", section, "url", pageURL, "selector", spec.AnchorSelector, "error", err)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "parse html from %s", pageURL)
	}

	var downloadURL string
	doc.FindMatcher(anchors).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		text := linkText(s)
		x.logger.Debug("possible download link", "section", section, "href", href, "text", text)
		if !pattern.MatchString(text) {
			return true
		}

		candidate, err := ResolveURL(pageURL, href)
		if err != nil {
			x.logger.Warn("skipping matching link with unusable href", "section", section, "href", href, "error", err)
			return true
		}
		x.logger.Debug("found a match for anchor_text", "section", section, "text", text, "url", candidate)
		downloadURL = candidate
		return false
	})
	if downloadURL == "" {
		x.logger.Warn("matched nothing", "section", section, "url", pageURL)
		return nil, nil
	}

	version, ok := x.version(doc, spec)
	if !ok {
		x.logger.Warn("download link found but version tag matched nothing",
			"section", section, "download_url", downloadURL, "version_tag", spec.VersionSelector)
		return nil, nil
	}

	x.logger.Info("found a match on version tag", "section", section, "version", version)
	return &Hit{Version: version, DownloadURL: downloadURL}, nil
}

func (x *HTMLExtractor) version(doc *goquery.Document, spec *config.EntrySpec) (string, bool) {
	if spec.VersionSelector == "" {
		return "", false
	}
	sel, err := cascadia.Compile(spec.VersionSelector)
	if err != nil {
		x.logger.Warn("parser error in version selector", "section", spec.Section, "selector", spec.VersionSelector, "error", err)
		return "", false
	}
	match := doc.FindMatcher(sel).First()
	if match.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(match.Text()), true
}

// linkText joins the element's descendant text nodes with single spaces.
func linkText(s *goquery.Selection) string {
	var parts []string
	for _, n := range s.Nodes {
		collectText(n, &parts)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		*parts = append(*parts, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
