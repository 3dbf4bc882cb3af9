// Package auth is the single authentication API the rest of the app uses.
// It composes the gateway, the SSO exchanger and the session manager and adds
// no error kinds of its own.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/atreader/api"
	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/jrsteele09/atreader/session"
	"github.com/jrsteele09/atreader/sso"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// defaultSessionLifetime applies when a login or refresh response carries no
// expiry.
const defaultSessionLifetime = time.Hour

// SessionManager is the slice of session.Manager the service writes through.
type SessionManager interface {
	Current() *session.Session
	Update(s session.Session) error
	Clear() error
}

// Exchanger is the slice of sso.Exchanger the service drives.
type Exchanger interface {
	Exchange(ctx context.Context, cookie sso.Cookie) (session.Session, error)
	Authenticate(ctx context.Context, surface sso.Surface) (session.Session, error)
}

var (
	_ SessionManager = (*session.Manager)(nil)
	_ Exchanger      = (*sso.Exchanger)(nil)
	_ api.Caller     = (*Service)(nil)
)

// Service is the Auth Façade. Every successful login, SSO exchange or refresh
// is written through the session manager before the call returns.
type Service struct {
	sessions  SessionManager
	gateway   api.Caller
	exchanger Exchanger
	validator *Validator
	refreshes singleflight.Group
	nowFunc   func() time.Time
	logger    zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService wires the façade. exchanger may be nil when SSO is not offered.
func NewService(sessions SessionManager, gateway api.Caller, exchanger Exchanger, options ...ServiceOption) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("[NewService] session manager is required")
	}
	if gateway == nil {
		return nil, errors.New("[NewService] gateway is required")
	}

	s := &Service{
		sessions:  sessions,
		gateway:   gateway,
		exchanger: exchanger,
		validator: NewValidator(),
		nowFunc:   time.Now,
		logger:    log.With().Str("component", "auth").Logger(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login signs in with an account identifier (e-mail or login) and password.
func (s *Service) Login(ctx context.Context, identifier, secret string) (*session.Session, error) {
	req, err := s.validator.Credentials(identifier, secret)
	if err != nil {
		return nil, err
	}

	var resp api.SessionResponse
	if err := s.gateway.Do(ctx, api.LoginByPassword(), req, &resp); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] login-by-password")
	}
	sess, err := s.fromResponse(resp, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login]")
	}
	if err := s.sessions.Update(sess); err != nil {
		return nil, errors.Wrap(err, "[Service.Login]")
	}

	s.logger.Info().Msg("Signed in with password")
	return s.sessions.Current(), nil
}

// LoginWithSSO exchanges an already captured login cookie for a session.
func (s *Service) LoginWithSSO(ctx context.Context, cookie sso.Cookie) (*session.Session, error) {
	if s.exchanger == nil {
		return nil, errors.Wrap(apperrors.ErrInvalidConfiguration, "[Service.LoginWithSSO] sso is not configured")
	}
	if err := s.validator.Cookie(cookie); err != nil {
		return nil, err
	}

	sess, err := s.exchanger.Exchange(ctx, cookie)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.LoginWithSSO]")
	}
	return s.store(sess, "Signed in with SSO cookie")
}

// LoginWithBrowser runs the interactive SSO flow on surface. Cancelling ctx or
// closing the surface leaves the current session untouched.
func (s *Service) LoginWithBrowser(ctx context.Context, surface sso.Surface) (*session.Session, error) {
	if s.exchanger == nil {
		return nil, errors.Wrap(apperrors.ErrInvalidConfiguration, "[Service.LoginWithBrowser] sso is not configured")
	}

	sess, err := s.exchanger.Authenticate(ctx, surface)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.LoginWithBrowser]")
	}
	return s.store(sess, "Signed in through the login page")
}

// Refresh trades the refresh token for a new session. Concurrent callers share
// one request. The shared request is not tied to any one caller's
// cancellation; a cancelled caller stops waiting and the others still get the
// result.
func (s *Service) Refresh(ctx context.Context) (*session.Session, error) {
	results := s.refreshes.DoChan("refresh", func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "[Service.Refresh]")
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug().Msg("Joined in-flight refresh")
		}
		return res.Val.(*session.Session), nil
	}
}

func (s *Service) refresh(ctx context.Context) (*session.Session, error) {
	current := s.sessions.Current()
	if current == nil || current.RefreshToken == nil || strings.TrimSpace(*current.RefreshToken) == "" {
		return nil, errors.Wrap(apperrors.ErrMissingCredential, "[Service.Refresh] no refresh token")
	}

	var resp api.SessionResponse
	if err := s.gateway.Do(ctx, api.RefreshToken(), api.RefreshRequest{RefreshToken: *current.RefreshToken}, &resp); err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] refresh-token")
	}
	sess, err := s.fromResponse(resp, current)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh]")
	}
	return s.store(sess, "Session refreshed")
}

// Logout clears the local session. No server round-trip is made.
func (s *Service) Logout() error {
	if err := s.sessions.Clear(); err != nil {
		return errors.Wrap(err, "[Service.Logout]")
	}
	s.logger.Info().Msg("Signed out")
	return nil
}

// CurrentSession returns a copy of the session, or nil.
func (s *Service) CurrentSession() *session.Session {
	return s.sessions.Current()
}

// Do performs a gateway call. For retryable routes an expired session with a
// refresh token is refreshed first, and a 401 triggers one refresh and one
// retry. Errors are returned as the gateway reported them.
func (s *Service) Do(ctx context.Context, route api.Route, body any, out any) error {
	if route.Retryable && s.needsRefresh() {
		if _, err := s.Refresh(ctx); err != nil {
			s.logger.Debug().Err(err).Str("route", route.Name).Msg("Refresh before call failed")
		}
	}

	err := s.gateway.Do(ctx, route, body, out)
	if err == nil || !route.Retryable || !errors.Is(err, apperrors.ErrUnauthorized) {
		return err
	}

	if _, rerr := s.Refresh(ctx); rerr != nil {
		s.logger.Debug().Err(rerr).Str("route", route.Name).Msg("Refresh after 401 failed")
		return err
	}
	s.logger.Debug().Str("route", route.Name).Msg("Retrying after refresh")
	return s.gateway.Do(ctx, route, body, out)
}

func (s *Service) needsRefresh() bool {
	current := s.sessions.Current()
	return current != nil && current.RefreshToken != nil && !current.Valid(s.nowFunc())
}

func (s *Service) store(sess session.Session, msg string) (*session.Session, error) {
	if err := s.sessions.Update(sess); err != nil {
		return nil, errors.Wrap(err, "[Service] session update")
	}
	s.logger.Info().Msg(msg)
	return s.sessions.Current(), nil
}

// fromResponse maps a login or refresh response. previous, when set, supplies
// the refresh token and user id the response omits.
func (s *Service) fromResponse(resp api.SessionResponse, previous *session.Session) (session.Session, error) {
	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return session.Session{}, errors.Wrap(apperrors.ErrMalformedResponse, "response has no token")
	}

	sess := session.Session{
		AccessToken:  token,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
		UserID:       resp.UserID,
	}
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = s.nowFunc().Add(defaultSessionLifetime)
	}
	if previous != nil {
		if sess.RefreshToken == nil {
			sess.RefreshToken = previous.RefreshToken
		}
		if sess.UserID == nil {
			sess.UserID = previous.UserID
		}
	}
	return sess, nil
}
