package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagenoemail/pagenoemail/internal/db/dbtest"
)

type mapKV map[string][]byte

func (m mapKV) Get(key string) ([]byte, error) {
	v, ok := m[key]
	if !ok {
		return nil, ErrNotFound
	}

	return v, nil
}

func (m mapKV) Set(key string, value []byte) error {
	m[key] = value
	return nil
}

type brokenKV struct{}

var errBroken = errors.New("broken")

func (brokenKV) Get(string) ([]byte, error) { return nil, errBroken }
func (brokenKV) Set(string, []byte) error   { return errBroken }

func TestDefaults(t *testing.T) {
	s := NewStore(mapKV{})

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Settings{
		Subject:          "Please check your page",
		MessageTemplate:  "Hello,<br><br>{custom_message}<br><br>You are requested to check the following page:<br>{page_url}<br><br>Thank you.",
		BCCAddress:       "",
		EnabledPostTypes: []string{"page", "post"},
	}, got)
}

func TestEnabledPostTypesFallback(t *testing.T) {
	testCases := []struct {
		name   string
		stored string
		want   []string
	}{
		{name: "array", stored: `["page","product"]`, want: []string{"page", "product"}},
		{name: "empty array", stored: `[]`, want: []string{}},
		{name: "string", stored: `"page"`, want: []string{"page", "post"}},
		{name: "null", stored: `null`, want: []string{"page", "post"}},
		{name: "garbage", stored: `page,post`, want: []string{"page", "post"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(mapKV{KeyEnabledPostTypes: []byte(tc.stored)})

			got, err := s.EnabledPostTypes()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSetters(t *testing.T) {
	kv := mapKV{}
	s := NewStore(kv)

	subject, err := s.SetSubject("  <b>Review</b>\nneeded ")
	require.NoError(t, err)
	assert.Equal(t, "Review needed", subject)

	tpl, err := s.SetMessageTemplate("<p>{custom_message}</p><script>x()</script>{page_url}")
	require.NoError(t, err)
	assert.Equal(t, "<p>{custom_message}</p>{page_url}", tpl)

	tpl, err = s.SetMessageTemplate(`<a href="{page_url}">View page</a> <p>{custom_message}</p>`)
	require.NoError(t, err)
	assert.Equal(t, `<a href="{page_url}" rel="nofollow">View page</a> <p>{custom_message}</p>`, tpl)
	assert.Equal(t, tpl, string(kv[KeyMessageTemplate]))

	bcc, err := s.SetBCCAddress("audit@example.com")
	require.NoError(t, err)
	assert.Equal(t, "audit@example.com", bcc)

	bcc, err = s.SetBCCAddress("not valid")
	require.NoError(t, err)
	assert.Equal(t, "", bcc)
	assert.Equal(t, []byte(""), kv[KeyBCCAddress])

	types, err := s.SetEnabledPostTypes([]string{"page", " ", "<i>product</i>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"page", "product"}, types)
	assert.JSONEq(t, `["page","product"]`, string(kv[KeyEnabledPostTypes]))

	types, err = s.SetEnabledPostTypes(nil)
	require.NoError(t, err)
	assert.Empty(t, types)
	assert.Equal(t, "[]", string(kv[KeyEnabledPostTypes]))

	enabled, err := s.IsPostTypeEnabled("page")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestSaveAndIsPostTypeEnabled(t *testing.T) {
	s := NewStore(mapKV{})

	out, err := s.Save(Settings{
		Subject:          "Subject",
		MessageTemplate:  "{custom_message} at {page_url}",
		BCCAddress:       "",
		EnabledPostTypes: []string{"page"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Subject", out.Subject)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, out, loaded)

	ok, err := s.IsPostTypeEnabled("page")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsPostTypeEnabled("post")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackendErrors(t *testing.T) {
	s := NewStore(brokenKV{})

	_, err := s.Load()
	require.ErrorIs(t, err, errBroken)

	_, err = s.SetSubject("x")
	require.ErrorIs(t, err, errBroken)

	_, err = s.SetEnabledPostTypes([]string{"page"})
	require.ErrorIs(t, err, errBroken)

	require.ErrorIs(t, s.Reset(), ErrResetUnsupported)
}

func TestDBBackend(t *testing.T) {
	kv := NewDB(dbtest.New(t))
	s := NewStore(kv)

	_, err := kv.Get(KeySubject)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.SetSubject("Stored")
	require.NoError(t, err)
	_, err = s.SetSubject("Stored twice")
	require.NoError(t, err)

	subject, err := s.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Stored twice", subject)

	require.NoError(t, s.Reset())

	subject, err = s.Subject()
	require.NoError(t, err)
	assert.Equal(t, DefaultSubject, subject)

	require.NoError(t, s.Reset())
}
