package postmeta

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagenoemail/pagenoemail/internal/db/dbtest"
)

type brokenKV struct{}

var errBroken = errors.New("broken")

func (brokenKV) Get(uint64, string) (string, error) { return "", errBroken }
func (brokenKV) Set(uint64, string, string) error   { return errBroken }

func TestStoreAbsentReadsEmpty(t *testing.T) {
	s := NewStore(NewDB(dbtest.New(t)))

	m, err := s.Load(42)
	require.NoError(t, err)
	assert.Equal(t, Meta{}, m)
}

func TestStoreSave(t *testing.T) {
	s := NewStore(NewDB(dbtest.New(t)))

	stored, err := s.Save(7, Meta{
		NotificationEmails: "a@x.com, <b>b@y.org</b>",
		CustomMessage:      "Please <strong>review</strong><script>bad()</script>",
	})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com, <b>b@y.org</b>", stored.NotificationEmails)
	assert.Equal(t, "Please <strong>review</strong>", stored.CustomMessage)

	_, err = s.Save(7, Meta{NotificationEmails: "c@z.net", CustomMessage: "second"})
	require.NoError(t, err)

	m, err := s.Load(7)
	require.NoError(t, err)
	assert.Equal(t, Meta{NotificationEmails: "c@z.net", CustomMessage: "second"}, m)

	other, err := s.Load(8)
	require.NoError(t, err)
	assert.Equal(t, Meta{}, other)
}

func TestStoreErrors(t *testing.T) {
	s := NewStore(brokenKV{})

	_, err := s.Load(1)
	require.ErrorIs(t, err, errBroken)

	_, err = s.Set(1, KeyCustomMessage, "x")
	require.ErrorIs(t, err, errBroken)
}
