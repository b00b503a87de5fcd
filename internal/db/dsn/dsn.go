// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/pagenoemail/pagenoemail/internal/config"
)

// Create builds the Data Source Name of the configured gorm engine.
// MySQL gets the go-sql-driver form, Postgres a postgres:// URL and SQLite
// the database file path.
func Create(cfg *config.Config) (string, error) {
	db := cfg.DB

	switch db.GormEngine {
	case config.EngineMySQL:
		out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
		)
		if db.Extras != "" {
			out += "?" + db.Extras
		}

		return out, nil
	case config.EnginePostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(db.User, db.Password),
			Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
			Path:     "/" + db.Name,
			RawQuery: db.Extras,
		}

		return u.String(), nil
	case config.EngineSQLite:
		if db.Extras != "" {
			return db.Name + "?" + db.Extras, nil
		}

		return db.Name, nil
	default:
		return "", config.ErrUnknownGormEngine
	}
}
