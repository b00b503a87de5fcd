// Package handlertest provides the fixtures shared by the handler tests:
// an in-memory database with seeded users and posts, a recording view
// engine and request helpers.
package handlertest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	"github.com/pagenoemail/pagenoemail/internal/config"
	"github.com/pagenoemail/pagenoemail/internal/db/dbtest"
	"github.com/pagenoemail/pagenoemail/internal/db/models"
	"github.com/pagenoemail/pagenoemail/internal/mail"
	"github.com/pagenoemail/pagenoemail/internal/nonce"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/session"
)

// Views is a Fiber Views engine that records the last render call.
// It writes the "error" field of the data if present, otherwise the template name.
type Views struct {
	mu   sync.Mutex
	name string
	data fiber.Map
}

// Load implements fiber.Views.
func (*Views) Load() error { return nil }

// Render implements fiber.Views.
func (v *Views) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	m, _ := data.(fiber.Map)

	v.mu.Lock()
	v.name, v.data = name, m
	v.mu.Unlock()

	if e, ok := m["error"].(string); ok && e != "" {
		_, _ = io.WriteString(w, e)
		return nil
	}

	_, _ = io.WriteString(w, name)

	return nil
}

// Last returns the template name and data of the last render.
func (v *Views) Last() (string, fiber.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.name, v.data
}

// Env is a ready to use handler environment.
type Env struct {
	Deps     *handler.Deps
	App      *fiber.App
	Views    *Views
	Recorder *mail.Recorder

	Admin      models.User
	Editor     models.User
	Subscriber models.User

	Page    models.Post
	Post    models.Post
	Product models.Post
}

// Password is the password of every seeded user.
const Password = "secret"

// New returns an environment with three users: an administrator allowed
// everything, an editor allowed to edit pages only and a subscriber without
// edit rights. Three posts exist, of type page, post and product.
func New(t *testing.T) *Env {
	t.Helper()

	db := dbtest.New(t)
	session.Init(nil)

	cfg := &config.Config{
		Title: "Test",
		Site:  config.Site{URL: "https://www.example.com"},
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
		Nonce: config.Nonce{Secret: "test-secret", Lifetime: time.Hour},
	}

	nonces, err := nonce.New(cfg.Nonce.Secret, cfg.Nonce.Lifetime)
	require.NoError(t, err)

	authService := auth.NewService(db)
	recorder := mail.NewRecorder()

	env := &Env{
		Deps: &handler.Deps{
			Cfg:        cfg,
			DB:         db,
			Auth:       authService,
			Nonce:      nonces,
			Mailer:     recorder,
			MailErrors: mail.NewErrorLog(10),
		},
		Views:    &Views{},
		Recorder: recorder,
	}
	env.App = fiber.New(fiber.Config{Views: env.Views})

	for _, pt := range []models.PostType{
		{Name: models.PostTypePage, Label: "Page", Public: true},
		{Name: models.PostTypePost, Label: "Post", Public: true},
		{Name: "product", Label: "Product", Public: true},
	} {
		require.NoError(t, db.Create(&pt).Error)
	}

	env.Admin = createUser(t, db, "admin", models.RoleAdministrator)
	env.Editor = createUser(t, db, "editor", models.RoleEditor)
	env.Subscriber = createUser(t, db, "subscriber", models.RoleSubscriber)

	require.NoError(t, authService.GrantPermissions(models.RoleAdministrator,
		auth.PermAdminSettings, auth.PermPostList,
		auth.EditPostPermission(models.PostTypePage),
		auth.EditPostPermission(models.PostTypePost),
		auth.EditPostPermission("product"),
	))
	require.NoError(t, authService.GrantPermissions(models.RoleEditor,
		auth.PermPostList, auth.EditPostPermission(models.PostTypePage)))
	require.NoError(t, authService.GrantPermissions(models.RoleSubscriber, auth.PermPostList))

	env.Page = models.Post{Type: models.PostTypePage, Title: "About", Slug: "about"}
	env.Post = models.Post{Type: models.PostTypePost, Title: "News", Slug: "news"}
	env.Product = models.Post{Type: "product", Title: "Widget", Slug: "widget"}

	for _, p := range []*models.Post{&env.Page, &env.Post, &env.Product} {
		require.NoError(t, db.Create(p).Error)
	}

	return env
}

func createUser(t *testing.T, db *gorm.DB, name, roleName string) models.User {
	t.Helper()

	role := models.Role{Name: roleName, IsSystem: true}
	require.NoError(t, db.Where(models.Role{Name: roleName}).FirstOrCreate(&role).Error)

	hash, err := models.HashPassword(Password)
	require.NoError(t, err)

	user := models.User{
		Username: name,
		Email:    name + "@example.com",
		Password: hash,
		Active:   true,
		RoleID:   role.ID,
	}
	require.NoError(t, db.Create(&user).Error)

	return user
}

// Login creates a session for user and returns the cookie value.
func Login(t *testing.T, user models.User) string {
	t.Helper()

	id, err := session.GenerateSessionID()
	require.NoError(t, err)
	require.NoError(t, (&session.Data{User: user}).Write(id, time.Minute))

	return id
}

// Nonce returns a valid ajax token for user.
func (e *Env) Nonce(t *testing.T, user models.User) string {
	t.Helper()

	token, err := e.Deps.Nonce.Create(nonce.ScopeAjax, user.ID)
	require.NoError(t, err)

	return token
}

// Do performs req with the session cookie when it is not empty.
func (e *Env) Do(t *testing.T, req *http.Request, cookie string) *http.Response {
	t.Helper()

	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

// Get performs a GET request.
func (e *Env) Get(t *testing.T, target, cookie string) *http.Response {
	t.Helper()

	return e.Do(t, httptest.NewRequest(http.MethodGet, target, nil), cookie)
}

// PostForm performs a form encoded POST request.
func (e *Env) PostForm(t *testing.T, target string, form url.Values, cookie string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	return e.Do(t, req, cookie)
}

// CSRFToken loads the form page at target and returns the csrf token it
// handed out.
func (e *Env) CSRFToken(t *testing.T, target, cookie string) string {
	t.Helper()

	resp := e.Get(t, target, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == handler.CSRFCookie {
			return c.Value
		}
	}

	t.Fatalf("no csrf cookie in response to %s", target)

	return ""
}

// SubmitForm posts form to target with the csrf token in both the form and
// the cookie. An empty token sends neither.
func (e *Env) SubmitForm(t *testing.T, target string, form url.Values, cookie, token string) *http.Response {
	t.Helper()

	if token != "" {
		form.Set(handler.CSRFField, token)
	}

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	if token != "" {
		req.AddCookie(&http.Cookie{Name: handler.CSRFCookie, Value: token})
	}

	return e.Do(t, req, cookie)
}

// Body reads the response body.
func Body(t *testing.T, resp *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(b)
}
