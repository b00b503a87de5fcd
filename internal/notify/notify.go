package notify

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/pagenoemail/pagenoemail/internal/mail"
	"github.com/pagenoemail/pagenoemail/internal/options"
	"github.com/pagenoemail/pagenoemail/internal/postmeta"
	"github.com/pagenoemail/pagenoemail/internal/sanitize"
)

// Send outcomes reported by the notifications counter.
const (
	ResultSent     = "sent"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pagenoemail_notifications_total",
	Help: "Number of notification send attempts by result.",
}, []string{"result"})

// Request describes one send. Nil Emails or CustomMessage means the value
// stored for the post is used.
type Request struct {
	PostID        uint64
	Permalink     string
	Emails        *string
	CustomMessage *string
}

// Service sends notifications for posts.
type Service struct {
	options *options.Store
	meta    *postmeta.Store
	mailer  mail.Mailer
	errors  *mail.ErrorLog
}

// NewService returns a Service. errs may be nil.
func NewService(opts *options.Store, meta *postmeta.Store, mailer mail.Mailer, errs *mail.ErrorLog) *Service {
	return &Service{options: opts, meta: meta, mailer: mailer, errors: errs}
}

// Build resolves the request into a ready to send message without sending it.
func (s *Service) Build(req Request) (mail.Message, error) {
	var emails string

	if req.Emails != nil {
		emails = sanitize.Text(*req.Emails)
	} else {
		stored, err := s.meta.Get(req.PostID, postmeta.KeyNotificationEmail)
		if err != nil {
			return mail.Message{}, err
		}

		emails = stored
	}

	to, err := ParseRecipients(emails)
	if err != nil {
		return mail.Message{}, err
	}

	var message string

	if req.CustomMessage != nil {
		message = *req.CustomMessage
	} else {
		stored, err := s.meta.Get(req.PostID, postmeta.KeyCustomMessage)
		if err != nil {
			return mail.Message{}, err
		}

		message = stored
	}

	settings, err := s.options.Load()
	if err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:      to,
		Subject: settings.Subject,
		Body:    Compose(settings.MessageTemplate, req.Permalink, sanitize.HTML(message)),
		Header:  Headers(settings.BCCAddress),
	}, nil
}

// Send builds the message and dispatches it once. Transport failures are
// recorded in the error log and returned wrapped in ErrSendFailed.
func (s *Service) Send(ctx context.Context, req Request) error {
	msg, err := s.Build(req)
	if err != nil {
		notificationsTotal.WithLabelValues(ResultRejected).Inc()
		return err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		notificationsTotal.WithLabelValues(ResultFailed).Inc()

		if s.errors != nil {
			s.errors.Add(err)
		}

		log.Error().Err(err).Uint64("post_id", req.PostID).Strs("to", msg.To).Msg("notification email failed")

		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	notificationsTotal.WithLabelValues(ResultSent).Inc()
	log.Info().Uint64("post_id", req.PostID).Int("recipients", len(msg.To)).Msg("notification email sent")

	return nil
}
