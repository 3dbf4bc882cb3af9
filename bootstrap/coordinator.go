// Package bootstrap decides at startup whether the app is signed in.
package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/atreader/reader"
	"github.com/jrsteele09/atreader/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type State int

const (
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Auth is the part of the auth service the coordinator needs.
type Auth interface {
	CurrentSession() *session.Session
	Logout() error
}

// Coordinator never trusts a persisted session without asking the server.
type Coordinator struct {
	auth     Auth
	account  reader.AccountRepo
	onChange func(State)
	logger   zerolog.Logger

	lock  sync.RWMutex
	state State
	user  *reader.User
}

type Option func(*Coordinator)

// WithOnChange registers a callback run after every state transition. It is
// called without the coordinator's lock held.
func WithOnChange(fn func(State)) Option {
	return func(c *Coordinator) {
		c.onChange = fn
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator starts in StateUnknown. account should call through the
// auth service so validation gets refresh-and-retry.
func NewCoordinator(auth Auth, account reader.AccountRepo, opts ...Option) (*Coordinator, error) {
	if auth == nil {
		return nil, errors.New("[NewCoordinator] auth is required")
	}
	if account == nil {
		return nil, errors.New("[NewCoordinator] account repo is required")
	}
	c := &Coordinator{
		auth:    auth,
		account: account,
		logger:  log.With().Str("component", "bootstrap").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Bootstrap validates the persisted session by fetching the current user.
// Any failure signs out locally. It always settles on a definite state.
func (c *Coordinator) Bootstrap(ctx context.Context) State {
	if c.auth.CurrentSession() == nil {
		c.logger.Debug().Msg("No persisted session")
		return c.set(StateUnauthenticated, nil)
	}

	user, err := c.account.CurrentUser(ctx)
	if err != nil {
		c.logger.Info().Err(err).Msg("Persisted session rejected, signing out")
		if lerr := c.auth.Logout(); lerr != nil {
			c.logger.Warn().Err(lerr).Msg("Failed to clear rejected session")
		}
		return c.set(StateUnauthenticated, nil)
	}

	c.logger.Info().Int("user_id", user.ID).Msg("Session validated")
	return c.set(StateAuthenticated, user)
}

// DidLogin records a successful sign-in. The user is fetched best-effort.
func (c *Coordinator) DidLogin(ctx context.Context) State {
	user, err := c.account.CurrentUser(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Could not load user after sign-in")
		user = nil
	}
	return c.set(StateAuthenticated, user)
}

// DidLogout records that the session was cleared.
func (c *Coordinator) DidLogout() State {
	return c.set(StateUnauthenticated, nil)
}

func (c *Coordinator) State() State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state
}

// User is the account loaded at the last validation, or nil.
func (c *Coordinator) User() *reader.User {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Coordinator) set(state State, user *reader.User) State {
	c.lock.Lock()
	changed := c.state != state
	c.state = state
	c.user = user
	c.lock.Unlock()

	if changed && c.onChange != nil {
		c.onChange(state)
	}
	return state
}
