package mail

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans HTML email bodies for safe display
type Sanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewSanitizer creates a sanitizer with safe policies for email content
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()

	// Common text formatting
	p.AllowElements("p", "br", "hr", "span", "div")
	p.AllowElements("b", "strong", "i", "em", "u", "s", "sub", "sup")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("blockquote", "pre", "code")

	// Tables are common in newsletter-style mail
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("colspan", "rowspan", "align").OnElements("td", "th")

	// Links, made safe
	p.AllowStandardURLs()
	p.AllowElements("a")
	p.AllowAttrs("href", "title").OnElements("a")
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	// Highlight markers produced by the local search mirror
	p.AllowElements("mark")

	return &Sanitizer{
		policy: p,
		strict: bluemonday.StrictPolicy(),
	}
}

// SanitizeHTML sanitizes an HTML body for display.
func (s *Sanitizer) SanitizeHTML(html string) string {
	return s.policy.Sanitize(html)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// PlainText strips all markup and collapses whitespace. Used when deriving
// body snippets from HTML bodies during ingestion.
func (s *Sanitizer) PlainText(html string) string {
	text := s.strict.Sanitize(html)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Snippet returns a plain-text preview of at most n runes.
func (s *Sanitizer) Snippet(html string, n int) string {
	text := s.PlainText(html)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
