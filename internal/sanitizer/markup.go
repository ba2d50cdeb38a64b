package sanitizer

import (
	"html"
	"net/url"
	"strings"
)

// itemMarker stands in for [*] inside a list until the list is closed.
const itemMarker = "\x01"

var markupTags = map[string]bool{
	"b": true, "i": true, "u": true, "s": true,
	"h1": true, "h2": true, "h3": true,
	"quote": true, "code": true,
	"list": true, "olist": true,
	"url": true, "img": true,
}

var simpleTags = map[string]string{
	"b":     "strong",
	"i":     "em",
	"u":     "u",
	"s":     "del",
	"h1":    "h1",
	"h2":    "h2",
	"h3":    "h3",
	"quote": "blockquote",
}

var blockTags = map[string]bool{"h1": true, "h2": true, "h3": true, "blockquote": true}

var (
	linkSchemes  = map[string]bool{"http": true, "https": true, "mailto": true}
	imageSchemes = map[string]bool{"http": true, "https": true}
)

type markupFrame struct {
	tag  string
	arg  string
	open string
	buf  strings.Builder
}

// renderMarkup expands bracket markup over escaped text. Tags that are unknown,
// unbalanced or carry an unsafe URL are left as literal text.
func renderMarkup(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.Map(func(r rune) rune {
		if r == 0 || r == 1 {
			return -1
		}
		return r
	}, src)
	escaped := html.EscapeString(src)

	stack := []*markupFrame{{}}
	top := func() *markupFrame { return stack[len(stack)-1] }

	for i := 0; i < len(escaped); {
		if escaped[i] != '[' {
			n := strings.IndexByte(escaped[i:], '[')
			if n < 0 {
				n = len(escaped) - i
			}
			writeText(top(), escaped[i:i+n])
			i += n
			continue
		}

		end := strings.IndexByte(escaped[i:], ']')
		if end < 0 {
			writeText(top(), escaped[i:])
			break
		}
		token := escaped[i : i+end+1]
		name, arg, closing, ok := parseMarkupToken(token)
		if !ok {
			writeText(top(), "[")
			i++
			continue
		}

		switch {
		case name == "*":
			if t := top(); t.tag == "list" || t.tag == "olist" {
				t.buf.WriteString(itemMarker)
			} else {
				writeText(t, token)
			}
		case name == "code" && !closing:
			rest := escaped[i+len(token):]
			n := indexFold(rest, "[/code]")
			if n < 0 {
				writeText(top(), token)
				break
			}
			top().buf.WriteString("<pre><code>" + rest[:n] + "</code></pre>")
			i += len(token) + n + len("[/code]")
			continue
		case closing:
			t := top()
			if len(stack) > 1 && t.tag == name {
				stack = stack[:len(stack)-1]
				top().buf.WriteString(renderFrame(t, token))
			} else {
				writeText(t, token)
			}
		default:
			stack = append(stack, &markupFrame{tag: name, arg: arg, open: token})
		}
		i += len(token)
	}

	for len(stack) > 1 {
		t := top()
		stack = stack[:len(stack)-1]
		top().buf.WriteString(t.open + literalBody(t))
	}
	return stack[0].buf.String()
}

// parseMarkupToken accepts "[name]", "[/name]", "[url=arg]" and "[*]".
func parseMarkupToken(token string) (name, arg string, closing, ok bool) {
	inner := token[1 : len(token)-1]
	if inner == "*" {
		return "*", "", false, true
	}
	if strings.HasPrefix(inner, "/") {
		name = strings.ToLower(inner[1:])
		return name, "", true, markupTags[name]
	}
	name = inner
	if eq := strings.IndexByte(inner, '='); eq >= 0 {
		name, arg = inner[:eq], inner[eq+1:]
	}
	name = strings.ToLower(name)
	if !markupTags[name] {
		return "", "", false, false
	}
	if arg != "" && name != "url" {
		return "", "", false, false
	}
	if arg == "" && strings.Contains(inner, "=") {
		return "", "", false, false
	}
	return name, arg, false, true
}

func renderFrame(t *markupFrame, closeToken string) string {
	body := t.buf.String()
	if el, ok := simpleTags[t.tag]; ok {
		if blockTags[el] {
			body = trimBreaks(body)
		}
		return "<" + el + ">" + body + "</" + el + ">"
	}

	switch t.tag {
	case "list":
		return renderList(body, "ul")
	case "olist":
		return renderList(body, "ol")
	case "url":
		target := t.arg
		if target == "" {
			target = body
		}
		if u, ok := safeURL(html.UnescapeString(target), linkSchemes); ok {
			return `<a href="` + html.EscapeString(u) + `">` + body + `</a>`
		}
	case "img":
		if u, ok := safeURL(html.UnescapeString(body), imageSchemes); ok {
			return `<img src="` + html.EscapeString(u) + `" alt="">`
		}
	}
	return t.open + literalBody(t) + closeToken
}

func renderList(body, el string) string {
	var b strings.Builder
	b.WriteString("<" + el + ">")
	for _, item := range strings.Split(body, itemMarker) {
		item = trimBreaks(item)
		if item == "" {
			continue
		}
		b.WriteString("<li>" + item + "</li>")
	}
	b.WriteString("</" + el + ">")
	return b.String()
}

func literalBody(t *markupFrame) string {
	return strings.ReplaceAll(t.buf.String(), itemMarker, "[*]")
}

func writeText(f *markupFrame, s string) {
	f.buf.WriteString(strings.ReplaceAll(s, "\n", "<br>\n"))
}

func trimBreaks(s string) string {
	for {
		t := strings.TrimSpace(s)
		t = strings.TrimPrefix(t, "<br>")
		t = strings.TrimSuffix(t, "<br>")
		if t == s {
			return t
		}
		s = t
	}
}

// safeURL accepts absolute URLs with an allowed scheme and host-relative paths.
func safeURL(raw string, schemes map[string]bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "<>\"'`\\ \t\r\n") {
		return "", false
	}
	if strings.HasPrefix(raw, "/") {
		if strings.HasPrefix(raw, "//") {
			return "", false
		}
		return raw, true
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if !schemes[scheme] {
		return "", false
	}
	if scheme != "mailto" && u.Host == "" {
		return "", false
	}
	return raw, true
}

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
