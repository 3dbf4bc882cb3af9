package session

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Manager is the authoritative in-memory holder of the current session.
// Every mutation goes through it and is persisted to the Store before the
// call returns.
type Manager struct {
	store   Store
	session *Session
	lock    sync.RWMutex
	nowFunc func() time.Time
	logger  zerolog.Logger
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowFunc sets the clock used for expiry checks (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager loads the persisted session from store. A load failure is
// logged and treated as no session.
func NewManager(store Store, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] store is required")
	}

	m := &Manager{
		store:   store,
		nowFunc: time.Now,
		logger:  log.With().Str("component", "session").Logger(),
	}
	for _, opt := range options {
		opt(m)
	}

	loaded, err := store.Load()
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to load persisted session, starting signed out")
		loaded = nil
	}
	if loaded != nil {
		m.session = loaded.clone()
	}
	return m, nil
}

// Current returns a copy of the current session, or nil. The session may be
// expired; use Valid before relying on it.
func (m *Manager) Current() *Session {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.session == nil {
		return nil
	}
	return m.session.clone()
}

// BearerToken returns the access token of a session that has not expired.
func (m *Manager) BearerToken() (string, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if !m.session.Valid(m.nowFunc()) {
		return "", false
	}
	return m.session.AccessToken, true
}

// Update replaces the session and persists it. If persisting fails the
// previous in-memory session is restored and the error returned.
func (m *Manager) Update(s Session) error {
	if s.AccessToken == "" {
		return errors.New("[Manager.Update] access token is required")
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	previous := m.session
	m.session = s.clone()
	if err := m.store.Save(m.session.clone()); err != nil {
		m.session = previous
		return errors.Wrap(err, "[Manager.Update] store.Save")
	}

	m.logger.Debug().Time("expires_at", s.ExpiresAt).Msg("Session updated")
	return nil
}

// Clear drops the persisted record and then the in-memory session. If the
// store cannot be cleared the in-memory session is kept, so memory never
// reports signed out while a record survives for the next start.
func (m *Manager) Clear() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.store.Clear(); err != nil {
		return errors.Wrap(err, "[Manager.Clear] store.Clear")
	}
	m.session = nil

	m.logger.Debug().Msg("Session cleared")
	return nil
}
