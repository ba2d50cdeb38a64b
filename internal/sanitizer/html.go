package sanitizer

import "regexp"

var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTag   = regexp.MustCompile(`(?i)</?script\b[^>]*>?`)
	eventAttr   = regexp.MustCompile(`(?i)[\s/]+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]*)`)
)

// stripDangerous removes script elements, inline event handlers and script
// URLs. It repeats until the text is stable so that fragments like
// "<scr<script></script>ipt>" cannot reassemble into a tag.
func stripDangerous(src string) string {
	for {
		out := scriptBlock.ReplaceAllString(src, "")
		out = scriptTag.ReplaceAllString(out, "")
		out = eventAttr.ReplaceAllString(out, " ")
		out = scriptScheme.ReplaceAllString(out, "blocked:")
		if out == src {
			return out
		}
		src = out
	}
}
