// Package sanitizer turns author and commenter input into HTML that is safe to
// embed in a page. Every input mode ends in the same allowlist policy.
package sanitizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

type Format string

const (
	FormatMarkup   Format = "markup"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

var ErrUnknownFormat = errors.New("unknown content format")

// Formats lists the accepted input modes in the order the editor offers them.
var Formats = []Format{FormatMarkup, FormatMarkdown, FormatHTML}

// ParseFormat maps a form value to a Format. An empty value means markup.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkup:
		return FormatMarkup, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

var (
	classPattern = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)
	idPattern    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	scriptScheme = regexp.MustCompile(`(?i)(java|vb)script\s*:`)
)

// Sanitizer is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
	md     goldmark.Markdown
}

func New() *Sanitizer {
	return &Sanitizer{
		policy: newPolicy(),
		md:     newMarkdown(),
	}
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.AllowImages()
	p.AllowLists()
	p.AllowTables()
	p.AllowElements(
		"p", "br", "hr", "strong", "b", "em", "i", "u", "s", "del", "ins",
		"sub", "sup", "mark", "small", "abbr", "cite", "kbd",
		"blockquote", "pre", "code", "span", "div", "figure", "figcaption",
		"h1", "h2", "h3", "h4", "h5", "h6",
	)
	p.AllowAttrs("title").Globally()
	p.AllowAttrs("class").Matching(classPattern).Globally()
	p.AllowAttrs("id").Matching(idPattern).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// Sanitize renders input in the given mode.
func (s *Sanitizer) Sanitize(input string, format Format) (string, error) {
	switch format {
	case FormatMarkup, "":
		return s.Markup(input), nil
	case FormatHTML:
		return s.HTML(input), nil
	case FormatMarkdown:
		return s.Markdown(input)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Markup renders bracket markup. Text is escaped before any tag is expanded.
func (s *Sanitizer) Markup(input string) string {
	return s.finish(renderMarkup(input))
}

// HTML filters author supplied HTML down to the allowlist.
func (s *Sanitizer) HTML(input string) string {
	return s.finish(stripDangerous(input))
}

func (s *Sanitizer) finish(htmlText string) string {
	return neutralizeSchemes(s.policy.Sanitize(htmlText))
}

// neutralizeSchemes rewrites any script scheme that survived as text so the
// output never carries a literal "javascript:".
func neutralizeSchemes(s string) string {
	return scriptScheme.ReplaceAllStringFunc(s, func(m string) string {
		return m[:len(m)-1] + "&#58;"
	})
}
