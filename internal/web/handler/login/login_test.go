package login

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pagenoemail/pagenoemail/internal/db/models"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/handlertest"
)

func newTestService(t *testing.T) (*handlertest.Env, *Service) {
	t.Helper()

	env := handlertest.New(t)

	var s Service
	if err := s.Init(env.App, env.Deps); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	return env, &s
}

func TestInit_NilDeps(t *testing.T) {
	var s Service
	if err := s.Init(nil, nil); err == nil {
		t.Fatalf("expected error for nil app and deps")
	}
}

func TestGet_RendersLogin(t *testing.T) {
	env, _ := newTestService(t)

	resp := env.Get(t, Path, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	if name, _ := env.Views.Last(); name != "login" {
		t.Fatalf("expected login template, got %q", name)
	}
}

func TestAuthenticate(t *testing.T) {
	env, s := newTestService(t)

	got, err := s.authenticate("editor", handlertest.Password)
	if err != nil || got == nil || got.ID != env.Editor.ID {
		t.Fatalf("expected editor, got user=%v err=%v", got, err)
	}

	if _, err = s.authenticate("editor", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err = s.authenticate("nobody", "secret"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	env.Deps.DB.Model(&models.User{}).Where("id = ?", env.Editor.ID).Update("active", false)

	if _, err = s.authenticate("editor", handlertest.Password); err != ErrAccountDisabled {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestPost_Success_SetsCookieAndRedirects(t *testing.T) {
	env, _ := newTestService(t)

	form := url.Values{
		"username": {"editor"},
		"password": {handlertest.Password},
	}
	resp := env.PostForm(t, Path, form, "")

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	if loc := resp.Header.Get("Location"); loc != handler.HomePath {
		t.Fatalf("expected redirect to %s, got %s", handler.HomePath, loc)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(setCookie, "session=") {
		t.Fatalf("expected session cookie, got %q", setCookie)
	}

	if !strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("expected Secure flag on cookie when DevMode=false, got %q", setCookie)
	}
}

func TestPost_DevModeDisablesSecure(t *testing.T) {
	env, _ := newTestService(t)
	env.Deps.Cfg.DevMode = true

	form := url.Values{
		"username": {"editor"},
		"password": {handlertest.Password},
	}
	resp := env.PostForm(t, Path, form, "")

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	if setCookie := resp.Header.Get("Set-Cookie"); strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("did not expect Secure flag when DevMode=true, got %q", setCookie)
	}
}

func TestPost_Errors(t *testing.T) {
	env, _ := newTestService(t)

	testCases := []struct {
		name string
		body func() *http.Request
		want string
	}{
		{
			name: "malformed json",
			body: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader("{"))
				req.Header.Set("Content-Type", "application/json")

				return req
			},
			want: ErrInvalidFormData.Error(),
		},
		{
			name: "missing password",
			body: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(url.Values{"username": {"editor"}}.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

				return req
			},
			want: ErrInvalidFormData.Error(),
		},
		{
			name: "wrong password",
			body: func() *http.Request {
				form := url.Values{"username": {"editor"}, "password": {"nope"}}
				req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

				return req
			},
			want: ErrInvalidCredentials.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.Do(t, tc.body(), "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200 OK on render error page, got %d", resp.StatusCode)
			}

			if body := handlertest.Body(t, resp); !strings.Contains(body, tc.want) {
				t.Fatalf("expected %q in body, got %q", tc.want, body)
			}
		})
	}
}
