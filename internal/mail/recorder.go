package mail

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Recorder keeps every message instead of sending it. It is used in
// development mode and by tests. Setting Err makes Send fail.
type Recorder struct {
	mu       sync.Mutex
	messages []Message

	Err error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send implements Mailer.
func (r *Recorder) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	log.Info().
		Str("component", "mail-recorder").
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("body_length", len(msg.Body)).
		Msg("email recorded")

	r.messages = append(r.messages, msg)

	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Message(nil), r.messages...)
}
