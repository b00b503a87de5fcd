// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variables overriding single config keys.
	EnvPrefix = "PNE"

	// EnvConfigJSON names the environment variable holding a JSON document merged over the file config.
	EnvConfigJSON = "PAGENOEMAIL_CONFIG_JSON"

	defaultShutDownTime   = 5
	defaultNonceLifetime  = 24 * time.Hour
	defaultSessionExpiry  = 12 * time.Hour
	defaultMailTimeout    = 10 * time.Second
	defaultMailPort       = 25
	invalidErrMessage     = "invalid config"
	mainConfigFileName    = "main.toml"
	mainConfigReadFailure = "failed to read main config file"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(path + mainConfigFileName)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, mainConfigReadFailure)
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, mainConfigReadFailure)
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "Page Notification Email")
	v.SetDefault("db.gormEngine", EngineSQLite)
	v.SetDefault("db.name", "pagenoemail.db")
	v.SetDefault("webserver.shutDownTime", defaultShutDownTime)
	v.SetDefault("webserver.session.expiryTime", defaultSessionExpiry)
	v.SetDefault("nonce.lifetime", defaultNonceLifetime)
	v.SetDefault("mail.port", defaultMailPort)
	v.SetDefault("mail.tlsMode", MailTLSAuto)
	v.SetDefault("mail.timeout", defaultMailTimeout)
	v.SetDefault("log.logLevel", "info")
	v.SetDefault("log.appName", "pagenoemail")
	v.SetDefault("log.serviceName", "pagenoemail")
	v.SetDefault("log.console.enabled", true)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config json from env")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the service can not start without
// and fills in the defaults a JSON override may have zeroed.
func validate(c *Config) error {
	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case EngineMySQL, EnginePostgres, EngineSQLite:
	case "":
		c.DB.GormEngine = EngineSQLite
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	if c.Nonce.Secret == "" {
		return errors.Wrap(ErrEmptyNonceSecret, invalidErrMessage)
	}

	if c.Mail.From == "" {
		return errors.Wrap(ErrEmptyMailFrom, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Nonce.Lifetime == 0 {
		c.Nonce.Lifetime = defaultNonceLifetime
	}

	if c.Mail.TLSMode == "" {
		c.Mail.TLSMode = MailTLSAuto
	}

	if c.Mail.Timeout == 0 {
		c.Mail.Timeout = defaultMailTimeout
	}

	// permalinks fall back to the admin url
	if c.Site.URL == "" {
		c.Site.URL = c.Webserver.URL
	}

	c.Site.URL = strings.TrimRight(c.Site.URL, "/")

	return nil
}
