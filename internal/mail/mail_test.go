package mail

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagenoemail/pagenoemail/internal/config"
)

func htmlMessage(to ...string) Message {
	h := textproto.MIMEHeader{}
	h.Set(HeaderContentType, ContentTypeHTML)

	return Message{To: to, Subject: "Please check", Body: "<p>hi</p>", Header: h}
}

func TestErrorLog(t *testing.T) {
	l := NewErrorLog(2)

	_, ok := l.Last()
	assert.False(t, ok)

	l.Add(nil)
	l.Add(errors.New("one"))
	l.Add(errors.New("two"))
	l.Add(errors.New("three"))

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "three", entries[0].Error)
	assert.Equal(t, "two", entries[1].Error)

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, "three", last.Error)

	l.Clear()
	assert.Empty(t, l.Entries())

	assert.Equal(t, DefaultErrorLogSize, NewErrorLog(0).size)
}

func TestErrorLogConcurrent(t *testing.T) {
	l := NewErrorLog(5)
	done := make(chan struct{})

	for i := range 10 {
		go func() {
			l.Add(fmt.Errorf("err %d", i))
			done <- struct{}{}
		}()
	}

	for range 10 {
		<-done
	}

	assert.Len(t, l.Entries(), 5)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	require.ErrorIs(t, r.Send(context.Background(), Message{}), ErrNoRecipients)
	require.NoError(t, r.Send(context.Background(), htmlMessage("a@x.com")))

	msgs := r.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsHTML())

	r.Err = errors.New("relay down")
	require.EqualError(t, r.Send(context.Background(), htmlMessage("a@x.com")), "relay down")
	assert.Len(t, r.Messages(), 1)
}

func TestSMTPBuild(t *testing.T) {
	s := NewSMTP(config.Mail{From: "noreply@example.com", FromName: "Site"})

	msg := htmlMessage("a@x.com", "b@y.org")
	msg.Header.Set(HeaderBcc, "audit@example.com")

	m := s.build(msg)
	assert.Equal(t, []string{"a@x.com", "b@y.org"}, m.GetHeader("To"))
	assert.Equal(t, []string{"audit@example.com"}, m.GetHeader("Bcc"))
	assert.Equal(t, []string{"Please check"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{`"Site" <noreply@example.com>`}, m.GetHeader("From"))

	id := m.GetHeader("Message-ID")
	require.Len(t, id, 1)
	assert.Regexp(t, `^<[0-9a-f-]{36}@example\.com>$`, id[0])
}

func TestSMTPSendFailures(t *testing.T) {
	s := NewSMTP(config.Mail{From: "noreply@example.com"})
	require.ErrorIs(t, s.Send(context.Background(), htmlMessage("a@x.com")), ErrNoHost)
	require.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipients)

	s = NewSMTP(config.Mail{
		Host:    "127.0.0.1",
		Port:    1,
		From:    "noreply@example.com",
		TLSMode: config.MailTLSNone,
		Timeout: time.Second,
	})
	require.Error(t, s.Send(context.Background(), htmlMessage("a@x.com")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Send(ctx, htmlMessage("a@x.com")), context.Canceled)
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", domainOf("a@example.com"))
	assert.Equal(t, "localhost", domainOf("nobody"))
	assert.Equal(t, "localhost", domainOf("trailing@"))
}
