package config

import (
	"time"

	"github.com/pagenoemail/pagenoemail/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Mail      Mail
	Nonce     Nonce
	Site      Site
	Title     string
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool    // enable static file browsing (for development purposes only)
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	Session        Session // session settings
}

// Site describes the public site whose posts are announced.
type Site struct {
	URL string // public base url used to build permalinks
}

// Nonce configures the anti-forgery tokens handed to the admin script.
type Nonce struct {
	Secret   string        // HMAC signing secret
	Lifetime time.Duration // how long an issued token stays valid
}
