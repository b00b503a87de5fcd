// Package options is the typed store for the notification settings kept in
// the options table.
package options

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pagenoemail/pagenoemail/internal/db/models"
	"github.com/pagenoemail/pagenoemail/internal/sanitize"
)

// Option keys.
const (
	KeySubject          = "pagenoemail_email_subject"
	KeyMessageTemplate  = "pagenoemail_email_message"
	KeyBCCAddress       = "pagenoemail_bcc_address"
	KeyEnabledPostTypes = "pagenoemail_enabled_post_types"
)

// Placeholders recognised in the message template.
const (
	PlaceholderPageURL       = "{page_url}"
	PlaceholderCustomMessage = "{custom_message}"
)

// Defaults used while an option has never been saved.
const (
	DefaultSubject         = "Please check your page"
	DefaultMessageTemplate = "Hello,<br><br>" + PlaceholderCustomMessage +
		"<br><br>You are requested to check the following page:<br>" + PlaceholderPageURL +
		"<br><br>Thank you."
)

// ErrNotFound is returned by a KV when the key has never been written.
var ErrNotFound = errors.New("option not found")

// Keys lists every option this package owns.
func Keys() []string {
	return []string{KeySubject, KeyMessageTemplate, KeyBCCAddress, KeyEnabledPostTypes}
}

// DefaultEnabledPostTypes returns a fresh copy of the default post type set.
func DefaultEnabledPostTypes() []string {
	return []string{models.PostTypePage, models.PostTypePost}
}

// KV is the persistent options table.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// Resetter is implemented by a KV that can drop the notification options.
type Resetter interface {
	Reset() error
}

// ErrResetUnsupported is returned by Store.Reset when the KV is not a Resetter.
var ErrResetUnsupported = errors.New("options backend cannot reset")

// Settings is the full notification configuration.
type Settings struct {
	Subject          string
	MessageTemplate  string
	BCCAddress       string
	EnabledPostTypes []string
}

// Store reads and writes the notification settings through a KV.
type Store struct {
	kv KV
}

// NewStore returns a store backed by kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) getString(key, def string) (string, error) {
	v, err := s.kv.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return def, nil
		}

		return "", fmt.Errorf("reading option %s: %w", key, err)
	}

	return string(v), nil
}

func (s *Store) setString(key, value string) error {
	if err := s.kv.Set(key, []byte(value)); err != nil {
		return fmt.Errorf("writing option %s: %w", key, err)
	}

	return nil
}

// Subject returns the email subject.
func (s *Store) Subject() (string, error) {
	return s.getString(KeySubject, DefaultSubject)
}

// MessageTemplate returns the email body template.
func (s *Store) MessageTemplate() (string, error) {
	return s.getString(KeyMessageTemplate, DefaultMessageTemplate)
}

// BCCAddress returns the blind copy address, "" when disabled.
func (s *Store) BCCAddress() (string, error) {
	return s.getString(KeyBCCAddress, "")
}

// EnabledPostTypes returns the post types that show the notification panel.
// A stored value that is not a JSON array reads back as the default set.
func (s *Store) EnabledPostTypes() ([]string, error) {
	v, err := s.kv.Get(KeyEnabledPostTypes)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DefaultEnabledPostTypes(), nil
		}

		return nil, fmt.Errorf("reading option %s: %w", KeyEnabledPostTypes, err)
	}

	var types []string
	if err := json.Unmarshal(v, &types); err != nil || types == nil {
		log.Warn().Str("option", KeyEnabledPostTypes).Msg("stored value is not a list, using defaults")
		return DefaultEnabledPostTypes(), nil
	}

	return types, nil
}

// IsPostTypeEnabled reports whether postType is in the enabled set.
func (s *Store) IsPostTypeEnabled(postType string) (bool, error) {
	types, err := s.EnabledPostTypes()
	if err != nil {
		return false, err
	}

	for _, t := range types {
		if t == postType {
			return true, nil
		}
	}

	return false, nil
}

// Load returns all four settings.
func (s *Store) Load() (Settings, error) {
	var (
		out Settings
		err error
	)

	if out.Subject, err = s.Subject(); err != nil {
		return Settings{}, err
	}

	if out.MessageTemplate, err = s.MessageTemplate(); err != nil {
		return Settings{}, err
	}

	if out.BCCAddress, err = s.BCCAddress(); err != nil {
		return Settings{}, err
	}

	if out.EnabledPostTypes, err = s.EnabledPostTypes(); err != nil {
		return Settings{}, err
	}

	return out, nil
}

// SetSubject stores the subject as plain text and returns the stored value.
func (s *Store) SetSubject(v string) (string, error) {
	v = sanitize.Text(v)
	return v, s.setString(KeySubject, v)
}

// SetMessageTemplate stores the template as restricted HTML and returns the stored value.
func (s *Store) SetMessageTemplate(v string) (string, error) {
	v = SanitizeTemplate(v)
	return v, s.setString(KeyMessageTemplate, v)
}

// SetBCCAddress stores the blind copy address. An empty value disables it;
// an invalid one is stored as empty.
func (s *Store) SetBCCAddress(v string) (string, error) {
	v = SanitizeBCC(v)
	return v, s.setString(KeyBCCAddress, v)
}

// SetEnabledPostTypes stores the post type set and returns the stored value.
// Elements that sanitize to "" are dropped; nil stores the empty set.
func (s *Store) SetEnabledPostTypes(v []string) ([]string, error) {
	v = SanitizePostTypes(v)

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	if err := s.kv.Set(KeyEnabledPostTypes, raw); err != nil {
		return nil, fmt.Errorf("writing option %s: %w", KeyEnabledPostTypes, err)
	}

	return v, nil
}

// Save writes all four settings and returns the stored values.
func (s *Store) Save(in Settings) (Settings, error) {
	var (
		out Settings
		err error
	)

	if out.Subject, err = s.SetSubject(in.Subject); err != nil {
		return Settings{}, err
	}

	if out.MessageTemplate, err = s.SetMessageTemplate(in.MessageTemplate); err != nil {
		return Settings{}, err
	}

	if out.BCCAddress, err = s.SetBCCAddress(in.BCCAddress); err != nil {
		return Settings{}, err
	}

	if out.EnabledPostTypes, err = s.SetEnabledPostTypes(in.EnabledPostTypes); err != nil {
		return Settings{}, err
	}

	return out, nil
}

// Reset restores the defaults by removing the stored options.
func (s *Store) Reset() error {
	r, ok := s.kv.(Resetter)
	if !ok {
		return ErrResetUnsupported
	}

	return r.Reset()
}

// SanitizeBCC returns "" for empty input, the address when valid, and ""
// with a logged warning otherwise.
func SanitizeBCC(v string) string {
	if v == "" {
		return ""
	}

	clean := sanitize.Email(v)
	if clean == "" {
		log.Warn().Str("value", v).Msg("invalid bcc address discarded")
	}

	return clean
}

// SanitizeTemplate keeps the safe HTML subset and leaves both placeholders
// literal, also when one is used as a link target.
func SanitizeTemplate(v string) string {
	return sanitize.HTMLKeeping(v, PlaceholderPageURL, PlaceholderCustomMessage)
}

// SanitizePostTypes cleans each element as plain text and drops empty ones.
func SanitizePostTypes(v []string) []string {
	out := make([]string, 0, len(v))

	for _, t := range v {
		if t = sanitize.Text(t); t != "" {
			out = append(out, t)
		}
	}

	return out
}
