package sanitizer

import (
	"io"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var fragmentPolicy = sync.OnceValue(func() *bluemonday.Policy {
	// UGC policy plus the structural attributes fragment markup relies on:
	// placeholder targeting and menu highlighting match on id/class, and nav
	// lists carry their own markup.
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id", "class").Globally()
	p.AllowElements("nav", "header", "footer", "section", "button")
	return p
})

// SanitizeFragment cleans fragment markup fetched from an untrusted origin.
// Scripts and event handlers are dropped; ids and classes survive so
// selector-based injection and menu highlighting keep working.
func SanitizeFragment(markup string) string {
	return fragmentPolicy().Sanitize(markup)
}

// StripTags removes all HTML/XML tags, keeping only text content. It walks
// the input with an HTML tokenizer and collects text nodes.
//
// Content cleanup only; not an XSS defense.
func StripTags(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var buf strings.Builder

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			if tokenizer.Err() == io.EOF {
				break
			}
			return ""
		}

		if tt == html.TextToken {
			buf.WriteString(tokenizer.Token().Data)
		}
	}

	return strings.TrimSpace(buf.String())
}

// Excerpt returns the first maxLen runes of the input's text content with
// whitespace runs collapsed.
func Excerpt(markup string, maxLen int) string {
	text := strings.Join(strings.Fields(StripTags(markup)), " ")
	runes := []rune(text)
	if maxLen <= 0 || len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen])
}
