package user

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	"github.com/pagenoemail/pagenoemail/internal/db/models"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/handlertest"
)

func newEnv(t *testing.T) *handlertest.Env {
	t.Helper()

	env := handlertest.New(t)

	var s Service
	require.NoError(t, s.Init(env.App, env.Deps))

	return env
}

func userPath(id uint64, suffix string) string {
	return Path + "/" + strconv.FormatUint(id, 10) + suffix
}

func TestInit_NilDeps(t *testing.T) {
	var s Service
	require.Error(t, s.Init(nil, nil))
}

func TestList(t *testing.T) {
	env := newEnv(t)
	cookie := handlertest.Login(t, env.Admin)

	env.CSRFToken(t, Path, cookie)

	name, data := env.Views.Last()
	assert.Equal(t, TemplateList, name)
	assert.Equal(t, env.Admin.ID, data["currentUserID"])

	users, ok := data["users"].([]models.User)
	require.True(t, ok)
	require.Len(t, users, 3)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, models.RoleAdministrator, users[0].Role.Name)
}

func TestPermissions(t *testing.T) {
	env := newEnv(t)

	resp := env.Get(t, Path, handlertest.Login(t, env.Editor))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.Get(t, Path+"/new", handlertest.Login(t, env.Subscriber))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.Get(t, Path, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreate(t *testing.T) {
	env := newEnv(t)
	cookie := handlertest.Login(t, env.Admin)
	token := env.CSRFToken(t, Path+"/new", cookie)

	_, data := env.Views.Last()
	assert.Equal(t, true, data["isCreate"])

	roles, ok := data["roles"].([]models.Role)
	require.True(t, ok)
	assert.Len(t, roles, 3)

	form := url.Values{
		"username":  {"writer"},
		"email":     {"writer@example.com"},
		"firstname": {"<b>Wri</b>"},
		"password":  {"long enough"},
		"role_id":   {strconv.FormatUint(uint64(env.Editor.RoleID), 10)},
		"active":    {"true"},
	}

	resp := env.SubmitForm(t, Path, form, cookie, token)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, Path, resp.Header.Get(fiber.HeaderLocation))

	user, err := env.Deps.Auth.Authenticate("writer", "long enough")
	require.NoError(t, err)
	assert.Equal(t, env.Editor.RoleID, user.RoleID)
	assert.Equal(t, "Wri", user.FirstName)

	ok, err = env.Deps.Auth.CanEditPost(user.ID, models.PostTypePage)
	require.NoError(t, err)
	assert.True(t, ok)

	resp = env.SubmitForm(t, Path, form, cookie, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Username or email already exists.", handlertest.Body(t, resp))

	form.Set("username", "shorty")
	form.Set("email", "shorty@example.com")
	form.Set("password", "short")

	resp = env.SubmitForm(t, Path, form, cookie, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, data = env.Views.Last()
	errs, ok := data["errors"].([]string)
	require.True(t, ok)
	assert.Contains(t, errs[0], "Password")

	form.Set("password", "long enough")

	resp = env.SubmitForm(t, Path, form, cookie, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, err = env.Deps.Auth.Authenticate("shorty", "long enough")
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestUpdate(t *testing.T) {
	env := newEnv(t)
	cookie := handlertest.Login(t, env.Admin)
	token := env.CSRFToken(t, userPath(env.Subscriber.ID, "/edit"), cookie)

	_, data := env.Views.Last()
	assert.Equal(t, false, data["isCreate"])
	assert.Equal(t, userPath(env.Subscriber.ID, ""), data["action"])

	form := url.Values{
		"email":    {"sub@example.org"},
		"password": {"brand new password"},
		"role_id":  {strconv.FormatUint(uint64(env.Editor.RoleID), 10)},
		"active":   {"true"},
	}

	resp := env.SubmitForm(t, userPath(env.Subscriber.ID, ""), form, cookie, token)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	user, err := env.Deps.Auth.Authenticate("subscriber", "brand new password")
	require.NoError(t, err)
	assert.Equal(t, "sub@example.org", user.Email)
	assert.Equal(t, env.Editor.RoleID, user.RoleID)

	// without a password the current one is kept
	form.Del("password")
	form.Set("active", "false")

	resp = env.SubmitForm(t, userPath(env.Subscriber.ID, ""), form, cookie, token)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	_, err = env.Deps.Auth.Authenticate("subscriber", "brand new password")
	require.ErrorIs(t, err, auth.ErrUserAccountDisabled)

	self := url.Values{
		"email":   {env.Admin.Email},
		"role_id": {strconv.FormatUint(uint64(env.Admin.RoleID), 10)},
	}

	resp = env.SubmitForm(t, userPath(env.Admin.ID, ""), self, cookie, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "You cannot deactivate your own account or change its role.", handlertest.Body(t, resp))

	resp = env.SubmitForm(t, userPath(99999, ""), form, cookie, token)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestDelete(t *testing.T) {
	env := newEnv(t)
	cookie := handlertest.Login(t, env.Admin)
	token := env.CSRFToken(t, Path, cookie)

	other, err := auth.NewAccounts(env.Deps.DB).CreateUser(auth.NewUser{
		Username: "admin2",
		Email:    "admin2@example.com",
		Password: "long enough",
		RoleID:   env.Admin.RoleID,
		Active:   true,
	})
	require.NoError(t, err)

	resp := env.SubmitForm(t, userPath(env.Admin.ID, "/delete"), url.Values{}, cookie, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "You cannot delete your own account.", handlertest.Body(t, resp))

	resp = env.SubmitForm(t, userPath(other.ID, "/delete"), url.Values{}, cookie, token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Cannot delete administrator accounts.", handlertest.Body(t, resp))

	resp = env.SubmitForm(t, userPath(env.Subscriber.ID, "/delete"), url.Values{}, cookie, token)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	_, err = env.Deps.Auth.Authenticate("subscriber", handlertest.Password)
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}
