// Package keyring stores the session in the OS secret store (macOS Keychain,
// Secret Service on Linux, Windows Credential Manager).
package keyring

import (
	"encoding/json"
	"strings"

	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/jrsteele09/atreader/session"
	"github.com/pkg/errors"
	gokeyring "github.com/zalando/go-keyring"
)

// Account is the fixed account name the record is stored under.
const Account = "auth_session"

var _ session.Store = (*Store)(nil)

// Store keeps exactly one session record keyed by (service, Account).
type Store struct {
	service string
}

// New returns a store for the given keyring service name.
func New(service string) (*Store, error) {
	if strings.TrimSpace(service) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidConfiguration, "[keyring.New] service is required")
	}
	return &Store{service: service}, nil
}

// Save replaces the stored record. The keyring's Set overwrites in place, so a
// reader never observes a missing record between delete and insert.
func (s *Store) Save(sess *session.Session) error {
	if sess == nil {
		return &apperrors.StoreError{Operation: "save", Cause: errors.New("nil session")}
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return &apperrors.StoreError{Operation: "save", Cause: errors.Wrap(err, "json.Marshal")}
	}
	if err := gokeyring.Set(s.service, Account, string(data)); err != nil {
		return &apperrors.StoreError{Operation: "save", Cause: err}
	}
	return nil
}

// Load returns nil, nil when nothing is stored.
func (s *Store) Load() (*session.Session, error) {
	data, err := gokeyring.Get(s.service, Account)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.StoreError{Operation: "load", Cause: err}
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, &apperrors.StoreError{Operation: "load", Cause: errors.Wrap(err, "json.Unmarshal")}
	}
	return &sess, nil
}

// Clear is idempotent.
func (s *Store) Clear() error {
	err := gokeyring.Delete(s.service, Account)
	if err == nil || errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return &apperrors.StoreError{Operation: "clear", Cause: err}
}
