package sanitizer

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// newMarkdown keeps goldmark's default of omitting raw HTML.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
}

// Markdown renders markdown and filters the result.
func (s *Sanitizer) Markdown(input string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(strings.ReplaceAll(input, "\r\n", "\n")), &buf); err != nil {
		return "", err
	}
	return s.finish(buf.String()), nil
}
