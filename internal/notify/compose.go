// Package notify builds and dispatches page notification emails.
package notify

import (
	"html"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pagenoemail/pagenoemail/internal/mail"
	"github.com/pagenoemail/pagenoemail/internal/options"
	"github.com/pagenoemail/pagenoemail/internal/sanitize"
)

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	blockStart     = regexp.MustCompile(`(?i)^<(p|div|ul|ol|li|blockquote|h[1-6]|pre|hr|table)[\s>/]`)
)

// ParseRecipients splits a comma separated list and keeps the valid
// addresses in their original order. Duplicates are kept.
func ParseRecipients(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoEmailAddress
	}

	var valid []string

	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); sanitize.IsEmail(addr) {
			valid = append(valid, addr)
		}
	}

	if len(valid) == 0 {
		return nil, ErrNoValidEmailAddresses
	}

	return valid, nil
}

// EscapeURL returns u escaped for an HTML attribute or text node.
// Anything that is not an absolute http(s) url yields "".
func EscapeURL(u string) string {
	u = strings.TrimSpace(u)

	parsed, err := url.Parse(u)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ""
	}

	return html.EscapeString(u)
}

// AutoParagraph turns blank-line separated text into <p> blocks and single
// line breaks into <br />. Blocks that already start with a block element
// are left unwrapped.
func AutoParagraph(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	if strings.TrimSpace(s) == "" {
		return ""
	}

	var b strings.Builder

	for _, block := range paragraphBreak.Split(strings.TrimSpace(s), -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		if blockStart.MatchString(block) {
			b.WriteString(block)
			b.WriteString("\n")

			continue
		}

		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(block, "\n", "<br />\n"))
		b.WriteString("</p>\n")
	}

	return b.String()
}

// Compose fills the template. The page url is substituted before the
// custom message, so a {page_url} written inside the message stays literal.
func Compose(template, pageURL, customMessage string) string {
	body := strings.ReplaceAll(template, options.PlaceholderPageURL, EscapeURL(pageURL))

	return strings.ReplaceAll(body, options.PlaceholderCustomMessage, AutoParagraph(customMessage))
}

// Headers returns the message headers. A configured but invalid bcc
// address is left out with a warning.
func Headers(bcc string) textproto.MIMEHeader {
	h := textproto.MIMEHeader{}
	h.Set(mail.HeaderContentType, mail.ContentTypeHTML)

	switch {
	case bcc == "":
	case sanitize.IsEmail(bcc):
		h.Set(mail.HeaderBcc, bcc)
		log.Info().Str("bcc", bcc).Msg("sending with bcc")
	default:
		log.Warn().Str("bcc", bcc).Msg("invalid bcc address configured")
	}

	return h
}
