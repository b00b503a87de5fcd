package options

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pagenoemail/pagenoemail/internal/db/controller/setting"
)

// DB adapts the options table to KV.
type DB struct {
	db *gorm.DB
}

// NewDB returns a KV over the options table of db.
func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// Get implements KV.
func (d *DB) Get(key string) ([]byte, error) {
	s, err := setting.Get(d.db, key)
	if err != nil {
		if errors.Is(err, setting.ErrSettingNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return s.Value, nil
}

// Set implements KV.
func (d *DB) Set(key string, value []byte) error {
	_, err := setting.Set(d.db, key, value)

	return err
}

// Reset removes every stored notification option so the defaults apply again.
func (d *DB) Reset() error {
	for _, k := range Keys() {
		if err := setting.DeleteByName(d.db, k); err != nil && !errors.Is(err, setting.ErrSettingNotFound) {
			return err
		}
	}

	return nil
}
