// Package sso obtains a session by letting the user sign in on the platform's
// own login page, harvesting the login cookie from the web surface and trading
// it for a bearer token.
package sso

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/atreader/api"
	"github.com/jrsteele09/atreader/internal/config"
	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/jrsteele09/atreader/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

const maxTokenBodyBytes = 64 << 10

// State is the exchanger's position in the SSO flow.
type State int

const (
	StateIdle State = iota
	StateAwaitingLoginCookie
	StateCookieCaptured
	StateExchanged
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingLoginCookie:
		return "awaiting-login-cookie"
	case StateCookieCaptured:
		return "cookie-captured"
	case StateExchanged:
		return "exchanged"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Exchanger runs at most one SSO attempt at a time. A second attempt while
// one is in flight is rejected with ErrExchangeInProgress.
type Exchanger struct {
	cfg            config.SSOConfig
	bearerTokenURL *url.URL
	callbackURL    *url.URL
	transport      http.RoundTripper
	timeout        time.Duration
	nowFunc        func() time.Time
	logger         zerolog.Logger

	lock     sync.Mutex
	state    State
	inFlight bool
	cancel   context.CancelFunc
}

// Option configures an Exchanger.
type Option func(*Exchanger)

// WithTransport sets the round tripper used by the isolated exchange client.
func WithTransport(rt http.RoundTripper) Option {
	return func(e *Exchanger) {
		e.transport = rt
	}
}

// WithTimeout bounds the bearer-token request.
func WithTimeout(d time.Duration) Option {
	return func(e *Exchanger) {
		e.timeout = d
	}
}

// WithNowFunc sets the clock used for session expiry (primarily for testing)
func WithNowFunc(now func() time.Time) Option {
	return func(e *Exchanger) {
		e.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Exchanger) {
		e.logger = logger
	}
}

// New validates cfg and returns an idle exchanger.
func New(cfg config.SSOConfig, opts ...Option) (*Exchanger, error) {
	if cfg == nil {
		return nil, errors.Wrap(apperrors.ErrInvalidConfiguration, "[sso.New] config is required")
	}
	if _, err := parseAbsoluteURL(cfg.GetLoginURL()); err != nil {
		return nil, errors.Wrapf(apperrors.ErrInvalidConfiguration, "[sso.New] login url: %v", err)
	}
	bearerURL, err := parseAbsoluteURL(cfg.GetBearerTokenURL())
	if err != nil {
		return nil, errors.Wrapf(apperrors.ErrInvalidConfiguration, "[sso.New] bearer-token url: %v", err)
	}
	var callbackURL *url.URL
	if raw := cfg.GetCallbackURL(); raw != "" {
		if callbackURL, err = parseAbsoluteURL(raw); err != nil {
			return nil, errors.Wrapf(apperrors.ErrInvalidConfiguration, "[sso.New] callback url: %v", err)
		}
	}
	if cfg.GetLoginCookieName() == "" || cfg.GetCookieDomain() == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidConfiguration, "[sso.New] login cookie name and domain are required")
	}
	if cfg.GetSSOSessionLifetime() <= 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidConfiguration, "[sso.New] session lifetime must be positive")
	}

	e := &Exchanger{
		cfg:            cfg,
		bearerTokenURL: bearerURL,
		callbackURL:    callbackURL,
		transport:      http.DefaultTransport,
		nowFunc:        time.Now,
		logger:         log.With().Str("component", "sso").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns the current state.
func (e *Exchanger) State() State {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.state
}

// Cancel aborts the in-flight attempt, if any. The attempt returns an error
// matching ErrCancelled and no session.
func (e *Exchanger) Cancel() {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Authenticate drives surface through the login page until the login cookie
// appears, then exchanges it. The surface is always closed before returning.
func (e *Exchanger) Authenticate(ctx context.Context, surface Surface) (session.Session, error) {
	if surface == nil {
		return session.Session{}, errors.Wrap(apperrors.ErrInvalidInput, "[Exchanger.Authenticate] surface is required")
	}
	ctx, err := e.begin(ctx)
	if err != nil {
		return session.Session{}, err
	}
	defer e.end()

	logger := e.logger.With().Str("attempt", uuid.NewString()).Logger()
	defer func() {
		if err := surface.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close login surface")
		}
	}()

	e.setState(StateAwaitingLoginCookie)
	events, err := surface.Open(ctx, e.cfg.GetLoginURL())
	if err != nil {
		return e.fail(e.cancelledOr(ctx, errors.Wrap(err, "[Exchanger.Authenticate] surface.Open")))
	}

	cookie, token, err := e.awaitLogin(ctx, events)
	if err != nil {
		logger.Debug().Err(err).Msg("Login cookie not captured")
		return e.fail(err)
	}

	if token != "" {
		logger.Info().Msg("Token received on navigation")
		return e.succeed(token)
	}

	logger.Info().Str("cookie", cookie.Name).Msg("Login cookie captured")
	e.setState(StateCookieCaptured)
	return e.exchange(ctx, cookie)
}

// Exchange trades an already captured login cookie for a session.
func (e *Exchanger) Exchange(ctx context.Context, cookie Cookie) (session.Session, error) {
	ctx, err := e.begin(ctx)
	if err != nil {
		return session.Session{}, err
	}
	defer e.end()

	e.setState(StateCookieCaptured)
	return e.exchange(ctx, cookie)
}

func (e *Exchanger) awaitLogin(ctx context.Context, events <-chan NavigationEvent) (Cookie, string, error) {
	name, domain := e.cfg.GetLoginCookieName(), e.cfg.GetCookieDomain()
	for {
		select {
		case <-ctx.Done():
			return Cookie{}, "", cancelled(ctx.Err())
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return Cookie{}, "", cancelled(ctx.Err())
				}
				return Cookie{}, "", apperrors.ErrMissingCookie
			}
			if e.isCallback(ev.URL) {
				if token := tokenFromURL(ev.URL); token != "" {
					return Cookie{}, token, nil
				}
			}
			if c, found := findLoginCookie(ev.Cookies, name, domain, e.nowFunc()); found {
				return c, "", nil
			}
		}
	}
}

// exchange sends the cookie to the bearer-token endpoint on an isolated
// client with its own ephemeral jar.
func (e *Exchanger) exchange(ctx context.Context, cookie Cookie) (session.Session, error) {
	if strings.TrimSpace(cookie.Value) == "" {
		return e.fail(errors.Wrap(apperrors.ErrInvalidInput, "[Exchanger.Exchange] login cookie is empty"))
	}
	if cookie.Name == "" {
		cookie.Name = e.cfg.GetLoginCookieName()
	}

	client, err := e.isolatedClient(cookie)
	if err != nil {
		return e.fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.bearerTokenURL.String(), nil)
	if err != nil {
		return e.fail(errors.Wrap(err, "[Exchanger.Exchange] build request"))
	}
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return e.fail(e.cancelledOr(ctx, &apperrors.NetworkError{Op: "GET " + e.bearerTokenURL.Path, Cause: err}))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBodyBytes))
	if err != nil {
		return e.fail(e.cancelledOr(ctx, &apperrors.NetworkError{Op: "read bearer-token body", Cause: err}))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return e.fail(api.ErrorFromResponse(resp.StatusCode, body))
	}

	token, err := parseBearerToken(body)
	if err != nil {
		return e.fail(err)
	}
	return e.succeed(token)
}

func (e *Exchanger) isolatedClient(cookie Cookie) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "[Exchanger.Exchange] cookiejar.New")
	}
	// Host-only cookie for the exchange endpoint; the jar is discarded with
	// the client.
	jar.SetCookies(e.bearerTokenURL, []*http.Cookie{{
		Name:  cookie.Name,
		Value: cookie.Value,
		Path:  "/",
	}})
	return &http.Client{Jar: jar, Transport: e.transport, Timeout: e.timeout}, nil
}

func (e *Exchanger) begin(ctx context.Context) (context.Context, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.inFlight {
		return nil, apperrors.ErrExchangeInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	e.inFlight = true
	e.cancel = cancel
	e.state = StateIdle
	return ctx, nil
}

func (e *Exchanger) end() {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = nil
	e.inFlight = false
}

func (e *Exchanger) setState(s State) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.state = s
}

func (e *Exchanger) succeed(token string) (session.Session, error) {
	s := newSession(token, e.nowFunc(), e.cfg.GetSSOSessionLifetime())
	e.setState(StateExchanged)
	return s, nil
}

func (e *Exchanger) fail(err error) (session.Session, error) {
	e.setState(StateFailed)
	return session.Session{}, err
}

func (e *Exchanger) cancelledOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return cancelled(ctx.Err())
	}
	return err
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", apperrors.ErrCancelled, cause)
}

// isCallback reports whether rawURL is the configured callback: same scheme,
// host and path. Query and fragment are ignored.
func (e *Exchanger) isCallback(rawURL string) bool {
	if e.callbackURL == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, e.callbackURL.Scheme) &&
		strings.EqualFold(u.Host, e.callbackURL.Host) &&
		strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(e.callbackURL.Path, "/")
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("%q is not absolute", raw)
	}
	return u, nil
}
