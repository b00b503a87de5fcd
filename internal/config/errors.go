package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownGormEngine error if db.gormEngine names an unsupported driver.
	ErrUnknownGormEngine = errors.New("toml config db.gormEngine must be mysql, postgres or sqlite")

	// ErrEmptyNonceSecret error if nonce.secret is empty.
	ErrEmptyNonceSecret = errors.New("toml config nonce.secret can not be empty")

	// ErrEmptyMailFrom error if mail.from is empty.
	ErrEmptyMailFrom = errors.New("toml config mail.from can not be empty")
)
