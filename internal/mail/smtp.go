package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	gomail "github.com/go-mail/mail"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pagenoemail/pagenoemail/internal/config"
)

// SMTP sends messages through an SMTP relay.
type SMTP struct {
	cfg config.Mail
}

// NewSMTP returns an SMTP transport.
func NewSMTP(cfg config.Mail) *SMTP {
	return &SMTP{cfg: cfg}
}

func (s *SMTP) dialer() *gomail.Dialer {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	if s.cfg.Timeout > 0 {
		d.Timeout = s.cfg.Timeout
	}

	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify, //nolint:gosec
	}

	switch s.cfg.TLSMode {
	case config.MailTLSSSL:
		d.SSL = true
	case config.MailTLSNone:
		d.StartTLSPolicy = gomail.NoStartTLS
	}

	return d
}

func (s *SMTP) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(s.cfg.From)))

	for k, v := range msg.Header {
		if k == HeaderContentType {
			continue
		}

		m.SetHeader(k, v...)
	}

	if msg.IsHTML() {
		m.SetBody("text/html", msg.Body)
	} else {
		m.SetBody("text/plain", msg.Body)
	}

	return m
}

// Send implements Mailer.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	if s.cfg.Host == "" {
		return ErrNoHost
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	logger := log.With().
		Str("component", "smtp").
		Str("host", s.cfg.Host).
		Int("port", s.cfg.Port).
		Strs("to", msg.To).
		Logger()

	logger.Debug().Str("subject", msg.Subject).Str("tls_mode", s.cfg.TLSMode).Msg("sending email")

	if err := s.dialer().DialAndSend(s.build(msg)); err != nil {
		logger.Error().Err(err).Msg("smtp send failed")
		return fmt.Errorf("smtp send: %w", err)
	}

	logger.Info().Msg("email sent")

	return nil
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}

	return "localhost"
}
