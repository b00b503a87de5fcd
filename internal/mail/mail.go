// Package mail delivers notification emails.
package mail

import (
	"context"
	"errors"
	"net/textproto"
	"strings"
)

// Header names understood by every Mailer.
const (
	HeaderContentType = "Content-Type"
	HeaderBcc         = "Bcc"

	ContentTypeHTML = "text/html; charset=UTF-8"
)

var (
	// ErrNoRecipients is returned when a message has no To address.
	ErrNoRecipients = errors.New("message has no recipients")
	// ErrNoHost is returned when the SMTP transport has no server configured.
	ErrNoHost = errors.New("smtp host is not configured")
)

// Message is one email addressed to one or more recipients.
type Message struct {
	To      []string
	Subject string
	Body    string
	Header  textproto.MIMEHeader
}

// IsHTML reports whether the body should be sent as text/html.
func (m *Message) IsHTML() bool {
	return strings.HasPrefix(strings.ToLower(m.Header.Get(HeaderContentType)), "text/html")
}

// Mailer sends a message synchronously.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
