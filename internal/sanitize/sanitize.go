// Package sanitize holds the input filters shared by the settings store,
// the post meta store and the request handlers.
package sanitize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// Func transforms untrusted input into a storable value.
type Func func(string) string

var (
	strict   = bluemonday.StrictPolicy()
	richText = newRichTextPolicy()
	validate = validator.New()

	whitespace = regexp.MustCompile(`[\s\x00]+`)

	// bluemonday escapes every text node; quotes and ampersands are turned
	// back, angle brackets stay encoded.
	textUnescaper = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`)
)

func newRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowStandardURLs()
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("title").OnElements("span", "div", "p")
	p.AllowElements(
		"a", "b", "blockquote", "br", "code", "div", "em", "h1", "h2", "h3", "h4", "h5", "h6",
		"hr", "i", "li", "ol", "p", "pre", "span", "strong", "u", "ul",
	)

	return p
}

// Text strips all markup and collapses whitespace, including line breaks,
// into single spaces. Ampersands and quotes are plain text; angle brackets,
// including entity encoded ones, come out as &lt; and &gt;.
func Text(s string) string {
	s = strict.Sanitize(s)
	s = textUnescaper.Replace(s)
	s = whitespace.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

// HTML keeps a small set of formatting elements and safe links. Scripts,
// event handlers and unknown elements are removed. Line breaks are kept.
func HTML(s string) string {
	return richText.Sanitize(s)
}

// HTMLKeeping is HTML with the given tokens left literal, also inside link
// attributes where they would otherwise be url-encoded.
func HTMLKeeping(s string, tokens ...string) string {
	pairs := make([]string, 0, 2*len(tokens))
	back := make([]string, 0, 2*len(tokens))

	for i, tok := range tokens {
		if tok == "" {
			continue
		}

		// an absolute url with nothing to escape survives both attribute
		// values and text nodes unchanged
		mark := "https://pnekeep" + strconv.Itoa(i) + ".invalid"
		pairs = append(pairs, tok, mark)
		back = append(back, mark, tok)
	}

	if len(pairs) == 0 {
		return HTML(s)
	}

	s = strings.NewReplacer(pairs...).Replace(s)

	return strings.NewReplacer(back...).Replace(richText.Sanitize(s))
}

// IsEmail reports whether s is a syntactically valid single address.
func IsEmail(s string) bool {
	if s == "" {
		return false
	}

	return validate.Var(s, "required,email") == nil
}

// Email returns the trimmed address, or "" when it is not valid.
func Email(s string) string {
	s = strings.TrimSpace(s)
	if !IsEmail(s) {
		return ""
	}

	return s
}
