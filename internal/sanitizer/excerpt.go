package sanitizer

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicy = func() *bluemonday.Policy {
		p := bluemonday.StrictPolicy()
		p.AddSpaceWhenStrippingTag(true)
		return p
	}()
	spaces = regexp.MustCompile(`\s+`)
)

// PlainText strips all markup from rendered HTML.
func PlainText(htmlText string) string {
	text := html.UnescapeString(textPolicy.Sanitize(htmlText))
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}

// Excerpt returns the first length runes of the plain text of htmlText.
func Excerpt(htmlText string, length int) string {
	runes := []rune(PlainText(htmlText))
	if len(runes) > length {
		return strings.TrimSpace(string(runes[:length])) + "..."
	}
	return string(runes)
}
