// Package postmeta provides read and upsert operations on the post meta table.
package postmeta

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pagenoemail/pagenoemail/internal/db/models"
)

const keyQueryPattern = "post_id = ? AND meta_key = ?"

var (
	// ErrMetaNotFound is returned when a post has no value stored under a key.
	ErrMetaNotFound = errors.New("post meta not found")
	// ErrMetaKeyEmpty is returned when reading or writing with an empty key.
	ErrMetaKeyEmpty = errors.New("post meta key cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get returns the value stored for the post under key.
func Get(db *gorm.DB, postID uint64, key string) (string, error) {
	if db == nil {
		return "", ErrDBNil
	}

	if key == "" {
		return "", ErrMetaKeyEmpty
	}

	var meta models.PostMeta

	result := db.Where(keyQueryPattern, postID, key).First(&meta)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrMetaNotFound
		}

		return "", result.Error
	}

	return meta.Value, nil
}

// Set stores value for the post under key, replacing any previous value.
func Set(db *gorm.DB, postID uint64, key, value string) error {
	if db == nil {
		return ErrDBNil
	}

	if key == "" {
		return ErrMetaKeyEmpty
	}

	meta := models.PostMeta{PostID: postID, Key: key, Value: value}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&meta).Error
}
