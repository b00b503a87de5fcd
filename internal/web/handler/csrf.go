package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	// CSRFField is the form field carrying the csrf token.
	CSRFField = "_csrf"
	// CSRFCookie is the cookie carrying the csrf token.
	CSRFCookie = "csrf_"
	// CSRFLocalsKey is the locals key the token is stored under for templates.
	CSRFLocalsKey = "csrf"
)

// CSRF returns the csrf middleware of the form pages. Tokens live in the
// middleware's storage, so every page served with the same Deps shares
// one instance and a token issued by one page is accepted by the others.
func (d *Deps) CSRF() fiber.Handler {
	d.csrfOnce.Do(func() {
		d.csrf = csrf.New(csrf.Config{
			KeyLookup:      "form:" + CSRFField,
			CookieName:     CSRFCookie,
			CookieSecure:   !d.Cfg.DevMode,
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
			ContextKey:     CSRFLocalsKey,
			KeyGenerator:   utils.UUIDv4,
		})
	})

	return d.csrf
}
