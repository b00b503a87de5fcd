package ajax

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagenoemail/pagenoemail/internal/db/models"
	"github.com/pagenoemail/pagenoemail/internal/logger/logtest"
	"github.com/pagenoemail/pagenoemail/internal/mail"
	"github.com/pagenoemail/pagenoemail/internal/options"
	"github.com/pagenoemail/pagenoemail/internal/postmeta"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/handlertest"
)

type fixture struct {
	*handlertest.Env
	meta *postmeta.Store
	opts *options.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	env := handlertest.New(t)

	var s Service
	require.NoError(t, s.Init(env.App, env.Deps))

	return &fixture{
		Env:  env,
		meta: postmeta.NewStore(postmeta.NewDB(env.Deps.DB)),
		opts: options.NewStore(options.NewDB(env.Deps.DB)),
	}
}

type rawResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, resp *http.Response) rawResponse {
	t.Helper()

	var out rawResponse
	require.NoError(t, json.Unmarshal([]byte(handlertest.Body(t, resp)), &out))

	return out
}

func dataString(t *testing.T, r rawResponse) string {
	t.Helper()

	var s string
	require.NoError(t, json.Unmarshal(r.Data, &s))

	return s
}

func postID(p models.Post) string {
	return strconv.FormatUint(p.ID, 10)
}

func TestInit_NilDeps(t *testing.T) {
	var s Service
	require.Error(t, s.Init(nil, nil))
}

func TestSaveSettings(t *testing.T) {
	f := newFixture(t)
	cookie := handlertest.Login(t, f.Editor)

	form := url.Values{
		FieldNonce:             {f.Nonce(t, f.Editor)},
		FieldPostID:            {postID(f.Page)},
		FieldNotificationEmail: {" a@x.com,\n<b>b@y.org</b> "},
		FieldCustomMessage:     {"Please <strong>review</strong><script>x()</script>"},
	}

	resp := f.PostForm(t, SavePath, form, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r := decode(t, resp)
	require.True(t, r.Success)

	var data SaveData
	require.NoError(t, json.Unmarshal(r.Data, &data))
	assert.Equal(t, SaveData{
		Message:           MsgSaved,
		NotificationEmail: "a@x.com, b@y.org",
		CustomMessage:     "Please <strong>review</strong>",
	}, data)

	stored, err := f.meta.Load(f.Page.ID)
	require.NoError(t, err)
	assert.Equal(t, data.NotificationEmail, stored.NotificationEmails)
	assert.Equal(t, data.CustomMessage, stored.CustomMessage)
}

func TestSaveSettings_Rejections(t *testing.T) {
	f := newFixture(t)
	editor := handlertest.Login(t, f.Editor)

	valid := func(p models.Post) url.Values {
		return url.Values{
			FieldNonce:             {f.Nonce(t, f.Editor)},
			FieldPostID:            {postID(p)},
			FieldNotificationEmail: {"a@x.com"},
			FieldCustomMessage:     {"hi"},
		}
	}

	without := func(key string) url.Values {
		v := valid(f.Page)
		v.Del(key)

		return v
	}

	withNonce := func(token string) url.Values {
		v := valid(f.Page)
		v.Set(FieldNonce, token)

		return v
	}

	testCases := []struct {
		name       string
		form       url.Values
		cookie     string
		wantStatus int
		wantData   string
	}{
		{name: "missing nonce", form: without(FieldNonce), cookie: editor, wantStatus: http.StatusOK, wantData: MsgMissingParameters},
		{name: "missing post id", form: without(FieldPostID), cookie: editor, wantStatus: http.StatusOK, wantData: MsgMissingParameters},
		{name: "missing email", form: without(FieldNotificationEmail), cookie: editor, wantStatus: http.StatusOK, wantData: MsgMissingParameters},
		{name: "missing message", form: without(FieldCustomMessage), cookie: editor, wantStatus: http.StatusOK, wantData: MsgMissingParameters},
		{name: "forged nonce", form: withNonce("forged"), cookie: editor, wantStatus: http.StatusForbidden, wantData: MsgInvalidToken},
		{name: "nonce of other user", form: withNonce(f.Nonce(t, f.Admin)), cookie: editor, wantStatus: http.StatusForbidden, wantData: MsgInvalidToken},
		{name: "post type not editable", form: valid(f.Post), cookie: editor, wantStatus: http.StatusOK, wantData: MsgInsufficientPermissions},
		{name: "unknown post", form: valid(models.Post{ID: 999}), cookie: editor, wantStatus: http.StatusOK, wantData: MsgInsufficientPermissions},
		{name: "no session", form: valid(f.Page), wantStatus: http.StatusUnauthorized, wantData: MsgUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := f.PostForm(t, SavePath, tc.form, tc.cookie)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			r := decode(t, resp)
			assert.False(t, r.Success)
			assert.Equal(t, tc.wantData, dataString(t, r))
		})
	}

	for _, p := range []models.Post{f.Page, f.Post} {
		stored, err := f.meta.Load(p.ID)
		require.NoError(t, err)
		assert.Equal(t, postmeta.Meta{}, stored, "no meta written for post %d", p.ID)
	}
}

func TestSendNotification(t *testing.T) {
	f := newFixture(t)
	cookie := handlertest.Login(t, f.Editor)

	_, err := f.meta.Save(f.Page.ID, postmeta.Meta{NotificationEmails: "stored@x.com", CustomMessage: "stored"})
	require.NoError(t, err)

	_, err = f.opts.Save(options.Settings{
		Subject:          "Check {page}",
		MessageTemplate:  "Msg: {custom_message} Url: {page_url}",
		BCCAddress:       "audit@example.com",
		EnabledPostTypes: []string{models.PostTypePage},
	})
	require.NoError(t, err)

	form := url.Values{
		FieldNonce:             {f.Nonce(t, f.Editor)},
		FieldPostID:            {postID(f.Page)},
		FieldNotificationEmail: {"a@x.com, bogus, b@y.org"},
		FieldCustomMessage:     {"Latest"},
	}

	resp := f.PostForm(t, SendPath, form, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r := decode(t, resp)
	require.True(t, r.Success)
	assert.Equal(t, MsgSent, dataString(t, r))

	msgs := f.Recorder.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"a@x.com", "b@y.org"}, msgs[0].To)
	assert.Equal(t, "Check {page}", msgs[0].Subject)
	assert.Equal(t, "Msg: <p>Latest</p>\n Url: https://www.example.com/about/", msgs[0].Body)
	assert.Equal(t, "audit@example.com", msgs[0].Header.Get(mail.HeaderBcc))
	assert.Equal(t, mail.ContentTypeHTML, msgs[0].Header.Get(mail.HeaderContentType))
}

func TestSendNotification_FallsBackToStoredMeta(t *testing.T) {
	f := newFixture(t)
	cookie := handlertest.Login(t, f.Editor)

	_, err := f.meta.Save(f.Page.ID, postmeta.Meta{NotificationEmails: "stored@x.com", CustomMessage: "Stored note"})
	require.NoError(t, err)

	form := url.Values{
		FieldNonce:  {f.Nonce(t, f.Editor)},
		FieldPostID: {postID(f.Page)},
	}

	r := decode(t, f.PostForm(t, SendPath, form, cookie))
	require.True(t, r.Success)

	msgs := f.Recorder.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"stored@x.com"}, msgs[0].To)
	assert.Contains(t, msgs[0].Body, "<p>Stored note</p>")
}

func TestSendNotification_Failures(t *testing.T) {
	f := newFixture(t)
	cookie := handlertest.Login(t, f.Editor)

	send := func(extra url.Values) rawResponse {
		form := url.Values{
			FieldNonce:  {f.Nonce(t, f.Editor)},
			FieldPostID: {postID(f.Page)},
		}
		for k, v := range extra {
			form[k] = v
		}

		return decode(t, f.PostForm(t, SendPath, form, cookie))
	}

	r := send(nil)
	assert.False(t, r.Success)
	assert.Equal(t, "No email address provided.", dataString(t, r))

	r = send(url.Values{FieldNotificationEmail: {""}})
	assert.Equal(t, "No email address provided.", dataString(t, r))

	r = send(url.Values{FieldNotificationEmail: {"   "}})
	assert.False(t, r.Success)
	assert.Equal(t, "No email address provided.", dataString(t, r))

	r = send(url.Values{FieldNotificationEmail: {"foo, bar"}})
	assert.False(t, r.Success)
	assert.Equal(t, "No valid email addresses provided.", dataString(t, r))

	assert.Empty(t, f.Recorder.Messages())

	r = decode(t, f.PostForm(t, SendPath, url.Values{FieldPostID: {postID(f.Page)}}, cookie))
	assert.Equal(t, MsgMissingParameters, dataString(t, r))

	f.Recorder.Err = errors.New("dial tcp: connection refused")

	r = send(url.Values{FieldNotificationEmail: {"a@x.com"}})
	assert.False(t, r.Success)
	assert.Equal(t, MsgSendFailed, dataString(t, r))

	last, ok := f.Deps.MailErrors.Last()
	require.True(t, ok)
	assert.Equal(t, "dial tcp: connection refused", last.Error)
}

func TestSendNotification_InvalidBCCStillSends(t *testing.T) {
	f := newFixture(t)
	cookie := handlertest.Login(t, f.Editor)
	logs := logtest.Capture(t)

	require.NoError(t, options.NewDB(f.Deps.DB).Set(options.KeyBCCAddress, []byte("broken-bcc")))

	form := url.Values{
		FieldNonce:             {f.Nonce(t, f.Editor)},
		FieldPostID:            {postID(f.Page)},
		FieldNotificationEmail: {"a@x.com"},
	}

	r := decode(t, f.PostForm(t, SendPath, form, cookie))
	require.True(t, r.Success)

	msgs := f.Recorder.Messages()
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].Header.Values(mail.HeaderBcc))

	entry, ok := logs.Find(zerolog.WarnLevel, "invalid bcc address configured")
	require.True(t, ok, "missing warning in %s", logs.String())
	assert.Equal(t, "broken-bcc", entry["bcc"])
}

func TestSendNotification_InsufficientPermissions(t *testing.T) {
	f := newFixture(t)
	cookie := handlertest.Login(t, f.Subscriber)

	form := url.Values{
		FieldNonce:             {f.Nonce(t, f.Subscriber)},
		FieldPostID:            {postID(f.Page)},
		FieldNotificationEmail: {"a@x.com"},
	}

	r := decode(t, f.PostForm(t, SendPath, form, cookie))
	assert.False(t, r.Success)
	assert.Equal(t, MsgInsufficientPermissions, dataString(t, r))
	assert.Empty(t, f.Recorder.Messages())
}

func TestNonce(t *testing.T) {
	f := newFixture(t)

	resp := f.Get(t, NoncePath, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.Get(t, NoncePath, handlertest.Login(t, f.Editor))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r := decode(t, resp)
	require.True(t, r.Success)

	var data NonceData
	require.NoError(t, json.Unmarshal(r.Data, &data))
	assert.Equal(t, 3600, data.ExpiresIn)
	require.NoError(t, f.Deps.Nonce.Verify(data.Nonce, "ajax_nonce", f.Editor.ID))
}
