package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	fiberlog "github.com/pagenoemail/pagenoemail/internal/logger/adapter/fiber"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/account"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/admin/settings/notification"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/admin/user"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/ajax"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/login"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/logout"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/posts"
	authmw "github.com/pagenoemail/pagenoemail/internal/web/middleware/auth"
)

const (
	// AppName is reported by fiber and used as page title fallback.
	AppName = "Page Notification Email"

	// CheckAlivePath answers 200 while the service accepts traffic.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes the prometheus registry.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	deps         *handler.Deps
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and stops the http server.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.deps.Cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.deps.Cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// CheckAlive answers 200 while the service is up and 503 while draining.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

func newTemplateEngine(devMode bool) *html.Engine {
	if devMode {
		engine := html.New("./internal/web/templates", ".gohtml")
		engine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")

		return engine
	}

	return html.NewFileSystem(http.FS(templateEmbedFS{embeddedTemplates}), ".gohtml")
}

// New creates the web service and registers every handler.
func New(deps *handler.Deps) (*Service, error) {
	if !deps.Valid() || deps.Nonce == nil || deps.Mailer == nil {
		return nil, handler.ErrNilDeps
	}

	cfg := deps.Cfg

	title := cfg.Title
	if title == "" {
		title = AppName
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          newTemplateEngine(cfg.DevMode),
		},
	)

	service := &Service{
		App:  app,
		deps: deps,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	// health checks and metrics answer without a session
	app.Get(CheckAlivePath, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(authmw.Middleware)
	app.Use(auth.AddPermissionsToLocals(deps.Auth))

	for _, h := range []handler.Service{
		&login.Handler,
		&logout.Handler,
		&posts.Handler,
		&notification.Handler,
		&user.Handler,
		&account.Handler,
		&ajax.Handler,
	} {
		if err := h.Init(app, deps); err != nil {
			return nil, err
		}
	}

	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(handler.HomePath)
	})

	return service, nil
}
