// Package daemon wires the database, session storage, mail transport and
// web service together.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	"github.com/pagenoemail/pagenoemail/internal/config"
	"github.com/pagenoemail/pagenoemail/internal/db/dsn"
	"github.com/pagenoemail/pagenoemail/internal/db/models"
	"github.com/pagenoemail/pagenoemail/internal/mail"
	"github.com/pagenoemail/pagenoemail/internal/nonce"
	"github.com/pagenoemail/pagenoemail/internal/web"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/session"
)

// sessionTable holds the web sessions on mysql and postgres.
const sessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start runs the web service until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	done := make(chan error, 1)

	go func() {
		done <- d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
	}()

	d.webService.WaitShutdown()

	return <-done
}

// OpenDB opens the configured database and migrates every model.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	source, err := dsn.Create(cfg)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		dialector = gormmysql.Open(source)
	case config.EnginePostgres:
		dialector = gormpostgres.Open(source)
	default:
		dialector = sqlite.Open(source)
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if cfg.DevMode {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// initSessions selects the session storage matching the database engine.
// SQLite keeps sessions in memory.
func initSessions(cfg *config.Config) error {
	source, err := dsn.Create(cfg)
	if err != nil {
		return err
	}

	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		session.Init(sessionmysql.New(sessionmysql.Config{
			ConnectionURI: source,
			Table:         sessionTable,
		}))
	case config.EnginePostgres:
		session.Init(sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: source,
			Table:         sessionTable,
		}))
	default:
		log.Warn().Msg("sqlite engine: sessions are kept in memory and lost on restart")
		session.Init(nil)
	}

	return nil
}

// newMailer returns the SMTP transport, or a recorder in dev mode without
// a mail host.
func newMailer(cfg *config.Config) mail.Mailer {
	if cfg.DevMode && cfg.Mail.Host == "" {
		log.Warn().Msg("dev mode without mail host: emails are recorded, not sent")
		return mail.NewRecorder()
	}

	return mail.NewSMTP(cfg.Mail)
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, handler.ErrNilDeps
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	authService := auth.NewService(db)

	if err = seed(db, authService); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	if err = initSessions(cfg); err != nil {
		return nil, err
	}

	nonces, err := nonce.New(cfg.Nonce.Secret, cfg.Nonce.Lifetime)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(&handler.Deps{
		Cfg:        cfg,
		DB:         db,
		Auth:       authService,
		Nonce:      nonces,
		Mailer:     newMailer(cfg),
		MailErrors: mail.NewErrorLog(mail.DefaultErrorLogSize),
	})
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		webService: webService,
	}, nil
}
