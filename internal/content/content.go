// Package content classifies stored policy text as Markdown, HTML, or plain
// text and renders it to sanitized display HTML.
//
// The Markdown dialect is a deliberately frozen house subset: documents
// already stored by administrators were authored against these exact
// substitutions, so the converter must reproduce them byte for byte. A
// general-purpose Markdown engine would change rendered output (list
// wrappers, heading ids) and is not a drop-in here.
//
// This is pure domain logic - no I/O, no side effects.
package content

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Format labels how a content string was classified.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPlain    Format = "plain"
)

// Rendered is display-ready output. HTML has been sanitized and is safe to
// inject into a page.
type Rendered struct {
	Format Format
	HTML   string
}

var (
	markdownLineMarker = regexp.MustCompile(`(?m)^(?:- |\* )`)

	reH3      = regexp.MustCompile(`(?m)^### (.+)$`)
	reH2      = regexp.MustCompile(`(?m)^## (.+)$`)
	reH1      = regexp.MustCompile(`(?m)^# (.+)$`)
	reBold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet  = regexp.MustCompile(`(?m)^[*-] (.+)$`)
	reOrdered = regexp.MustCompile(`(?m)^\d+\. (.+)$`)
)

// sanitizer is the allow-list applied to every HTML branch before display.
// Policy objects are safe for concurrent use once built.
var sanitizer = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"h1", "h2", "h3", "h4",
		"p", "br", "strong", "b", "em", "i", "u",
		"ul", "ol", "li",
		"table", "thead", "tbody", "tr", "th", "td",
		"blockquote", "span", "div",
	)
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AllowURLSchemes("http", "https", "mailto")
	return p
}

// Classify decides the format of a content string. Order matters: a document
// containing both Markdown markers and angle-bracket tags is HTML, because
// admin-pasted rich text frequently contains literal "**" runs.
func Classify(s string) Format {
	md := looksLikeMarkdown(s)
	html := strings.Contains(s, "<") && strings.Contains(s, ">")
	switch {
	case md && !html:
		return FormatMarkdown
	case html:
		return FormatHTML
	default:
		return FormatPlain
	}
}

// Render classifies s and produces sanitized display HTML. Empty input is
// plain with empty output; callers holding a possibly-absent content field
// pass the zero string.
func Render(s string) Rendered {
	if s == "" {
		return Rendered{Format: FormatPlain}
	}
	switch Classify(s) {
	case FormatMarkdown:
		return Rendered{Format: FormatMarkdown, HTML: sanitizer.Sanitize(convertMarkdown(s))}
	case FormatHTML:
		return Rendered{Format: FormatHTML, HTML: sanitizer.Sanitize(s)}
	default:
		return Rendered{Format: FormatPlain, HTML: renderPlain(s)}
	}
}

func looksLikeMarkdown(s string) bool {
	return strings.Contains(s, "##") ||
		strings.Contains(s, "**") ||
		markdownLineMarker.MatchString(s)
}

// convertMarkdown applies the house substitutions in their fixed order. Each
// step operates on the output of the previous one; reordering changes results
// (the h3 rule must run before h2 or "### x" becomes "<h2># x</h2>").
//
// List items are emitted without <ul>/<ol> containers. Existing stored
// documents render that way today; wrapping would change their display.
func convertMarkdown(s string) string {
	s = reH3.ReplaceAllString(s, "<h3>$1</h3>")
	s = reH2.ReplaceAllString(s, "<h2>$1</h2>")
	s = reH1.ReplaceAllString(s, "<h1>$1</h1>")
	s = reBold.ReplaceAllString(s, "<strong>$1</strong>")
	s = reBullet.ReplaceAllString(s, "<li>• $1</li>")
	s = reOrdered.ReplaceAllString(s, "<li>$1</li>")

	chunks := strings.Split(s, "\n\n")
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if isBlockChunk(chunk) {
			out = append(out, chunk)
			continue
		}
		out = append(out, "<p>"+strings.ReplaceAll(chunk, "\n", "<br/>")+"</p>")
	}
	return strings.Join(out, "\n")
}

// isBlockChunk reports whether a paragraph-split chunk already starts with a
// generated block element and must not gain a <p> wrapper.
func isBlockChunk(chunk string) bool {
	return strings.HasPrefix(chunk, "<h1>") ||
		strings.HasPrefix(chunk, "<h2>") ||
		strings.HasPrefix(chunk, "<h3>") ||
		strings.HasPrefix(chunk, "<li>")
}

// renderPlain escapes markup and preserves line breaks.
func renderPlain(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br/>")
}
