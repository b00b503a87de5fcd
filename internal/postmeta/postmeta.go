// Package postmeta stores the per-post notification recipients and message.
package postmeta

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	metactl "github.com/pagenoemail/pagenoemail/internal/db/controller/postmeta"
	"github.com/pagenoemail/pagenoemail/internal/sanitize"
)

// Meta keys.
const (
	KeyNotificationEmail = "notification_email"
	KeyCustomMessage     = "custom_message"
)

// ErrNotFound is returned by a KV when the post has no value under a key.
var ErrNotFound = errors.New("post meta not found")

// KV is the persistent post meta table.
type KV interface {
	Get(postID uint64, key string) (string, error)
	Set(postID uint64, key, value string) error
}

// Meta is the notification data attached to one post.
type Meta struct {
	NotificationEmails string
	CustomMessage      string
}

// Store reads and writes notification meta through a KV.
type Store struct {
	kv KV
}

// NewStore returns a store backed by kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Get returns the value of field for the post, "" when never written.
func (s *Store) Get(postID uint64, field string) (string, error) {
	v, err := s.kv.Get(postID, field)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("reading meta %s of post %d: %w", field, postID, err)
	}

	return v, nil
}

// Set writes field for the post. The custom message is restricted to safe
// HTML; other fields are stored as given.
func (s *Store) Set(postID uint64, field, value string) (string, error) {
	if field == KeyCustomMessage {
		value = sanitize.HTML(value)
	}

	if err := s.kv.Set(postID, field, value); err != nil {
		return "", fmt.Errorf("writing meta %s of post %d: %w", field, postID, err)
	}

	return value, nil
}

// Load returns both notification fields of the post.
func (s *Store) Load(postID uint64) (Meta, error) {
	emails, err := s.Get(postID, KeyNotificationEmail)
	if err != nil {
		return Meta{}, err
	}

	msg, err := s.Get(postID, KeyCustomMessage)
	if err != nil {
		return Meta{}, err
	}

	return Meta{NotificationEmails: emails, CustomMessage: msg}, nil
}

// Save writes both fields and returns the stored values.
func (s *Store) Save(postID uint64, m Meta) (Meta, error) {
	emails, err := s.Set(postID, KeyNotificationEmail, m.NotificationEmails)
	if err != nil {
		return Meta{}, err
	}

	msg, err := s.Set(postID, KeyCustomMessage, m.CustomMessage)
	if err != nil {
		return Meta{}, err
	}

	return Meta{NotificationEmails: emails, CustomMessage: msg}, nil
}

// DB adapts the post meta table to KV.
type DB struct {
	db *gorm.DB
}

// NewDB returns a KV over the post meta table of db.
func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// Get implements KV.
func (d *DB) Get(postID uint64, key string) (string, error) {
	v, err := metactl.Get(d.db, postID, key)
	if errors.Is(err, metactl.ErrMetaNotFound) {
		return "", ErrNotFound
	}

	return v, err
}

// Set implements KV.
func (d *DB) Set(postID uint64, key, value string) error {
	return metactl.Set(d.db, postID, key, value)
}
