package handler

import (
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	"github.com/pagenoemail/pagenoemail/internal/config"
	"github.com/pagenoemail/pagenoemail/internal/mail"
	"github.com/pagenoemail/pagenoemail/internal/nonce"
)

// ErrNilDeps is returned by Init when app or a required dependency is nil.
var ErrNilDeps = errors.New(ErrNilDepsMsg)

// Deps are the shared services handed to every handler.
type Deps struct {
	Cfg        *config.Config
	DB         *gorm.DB
	Auth       *auth.Service
	Nonce      *nonce.Service
	Mailer     mail.Mailer
	MailErrors *mail.ErrorLog

	csrfOnce sync.Once
	csrf     fiber.Handler
}

// Valid reports whether the dependencies every handler needs are set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.DB != nil && d.Auth != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}
