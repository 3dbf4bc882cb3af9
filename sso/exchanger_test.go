package sso_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/jrsteele09/atreader/sso"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testCookieName = "LoginCookie"

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type testConfig struct {
	siteURL     string
	domain      string
	callbackURL string
	lifetime    time.Duration
}

func (c testConfig) GetLoginURL() string                  { return c.siteURL + "/account/login" }
func (c testConfig) GetBearerTokenURL() string            { return c.siteURL + "/account/bearer-token" }
func (c testConfig) GetLoginCookieName() string           { return testCookieName }
func (c testConfig) GetCookieDomain() string              { return c.domain }
func (c testConfig) GetCallbackURL() string               { return c.callbackURL }
func (c testConfig) GetSSOSessionLifetime() time.Duration { return c.lifetime }
func (c testConfig) GetBrowserPath() string               { return "" }

// fakeSurface replays navigation events pushed by the test.
type fakeSurface struct {
	events    chan sso.NavigationEvent
	openErr   error
	lock      sync.Mutex
	openedURL string
	closes    int
	closeOnce sync.Once
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{events: make(chan sso.NavigationEvent, 8)}
}

func (f *fakeSurface) Open(ctx context.Context, loginURL string) (<-chan sso.NavigationEvent, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.openedURL = loginURL
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.events, nil
}

func (f *fakeSurface) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.closes++
	return nil
}

// dismiss simulates the user closing the surface.
func (f *fakeSurface) dismiss() {
	f.closeOnce.Do(func() { close(f.events) })
}

func (f *fakeSurface) closeCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.closes
}

type fixture struct {
	server    *httptest.Server
	exchanger *sso.Exchanger
	domain    string
	cookies   chan string
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()

	f := &fixture{cookies: make(chan string, 4)}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(testCookieName); err == nil {
			f.cookies <- c.Value
		}
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)

	cfg := testConfig{
		siteURL:     f.server.URL,
		domain:      "127.0.0.1",
		callbackURL: f.server.URL + "/auth-callback",
		lifetime:    time.Hour,
	}
	f.domain = cfg.domain

	e, err := sso.New(cfg,
		sso.WithTransport(f.server.Client().Transport),
		sso.WithNowFunc(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	f.exchanger = e
	return f
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func (f *fixture) loginCookie(value string) sso.Cookie {
	return sso.Cookie{Name: testCookieName, Value: value, Domain: f.domain}
}

func TestNew_Validation(t *testing.T) {
	_, err := sso.New(nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)

	_, err = sso.New(testConfig{siteURL: "relative", domain: "x", lifetime: time.Hour})
	require.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)

	_, err = sso.New(testConfig{siteURL: "https://author.today", domain: "author.today"})
	require.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)

	_, err = sso.New(testConfig{siteURL: "https://author.today", domain: "author.today", callbackURL: "/auth-callback", lifetime: time.Hour})
	require.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
}

func TestExchange_StripsBearerPrefix(t *testing.T) {
	f := newFixture(t, respond(`{"token":"Bearer xyz "}`))

	s, err := f.exchanger.Exchange(context.Background(), f.loginCookie("abc123"))
	require.NoError(t, err)
	require.Equal(t, "xyz", s.AccessToken)
	require.Equal(t, testNow.Add(time.Hour), s.ExpiresAt)
	require.Nil(t, s.RefreshToken)
	require.Nil(t, s.UserID)
	require.Equal(t, sso.StateExchanged, f.exchanger.State())
	require.Equal(t, "abc123", <-f.cookies)
}

func TestExchange_ResponseFormats(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantToken string
		wantErr   error
	}{
		{name: "raw text", body: "  raw-token\n", wantToken: "raw-token"},
		{name: "quoted string", body: `"quoted-token"`, wantToken: "quoted-token"},
		{name: "raw with bearer prefix", body: "bearer abc", wantToken: "abc"},
		{name: "json without token field", body: `{"unexpected":true}`, wantErr: apperrors.ErrMalformedResponse},
		{name: "truncated json", body: `{"token":"abc`, wantErr: apperrors.ErrMalformedResponse},
		{name: "empty token field", body: `{"token":""}`, wantErr: apperrors.ErrMalformedResponse},
		{name: "token field is only the scheme", body: `{"token":"Bearer "}`, wantErr: apperrors.ErrMalformedResponse},
		{name: "raw scheme without token", body: "bearer", wantErr: apperrors.ErrMissingToken},
		{name: "empty body", body: "   ", wantErr: apperrors.ErrMissingToken},
		{name: "only quotes", body: `""`, wantErr: apperrors.ErrMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, respond(tt.body))

			s, err := f.exchanger.Exchange(context.Background(), f.loginCookie("abc123"))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, s.AccessToken)
				require.Equal(t, sso.StateFailed, f.exchanger.State())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantToken, s.AccessToken)
		})
	}
}

func TestExchange_EmptyCookieRejectedBeforeNetwork(t *testing.T) {
	called := false
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := f.exchanger.Exchange(context.Background(), f.loginCookie("  "))
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	require.False(t, called)
}

func TestExchange_ServerError(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("<!DOCTYPE html><html>login required</html>"))
	})

	_, err := f.exchanger.Exchange(context.Background(), f.loginCookie("stale"))
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.NotContains(t, err.Error(), "<html")
}

func TestExchange_JWTClaims(t *testing.T) {
	exp := testNow.Add(10 * time.Minute)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":    exp.Unix(),
		"userId": "77",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	f := newFixture(t, respond(`{"token":"`+token+`"}`))

	s, err := f.exchanger.Exchange(context.Background(), f.loginCookie("abc"))
	require.NoError(t, err)
	require.Equal(t, token, s.AccessToken)
	require.True(t, exp.Equal(s.ExpiresAt), "expiry capped at the token's exp")
	require.NotNil(t, s.UserID)
	require.Equal(t, 77, *s.UserID)
}

func TestAuthenticate_CapturesCookieAfterNavigation(t *testing.T) {
	f := newFixture(t, respond(`{"token":"from-cookie"}`))
	surface := newFakeSurface()

	surface.events <- sso.NavigationEvent{URL: f.server.URL + "/account/login"}
	surface.events <- sso.NavigationEvent{
		URL: f.server.URL + "/",
		Cookies: []sso.Cookie{
			{Name: "other", Value: "x", Domain: f.domain},
			{Name: testCookieName, Value: "", Domain: f.domain},
			{Name: testCookieName, Value: "evil", Domain: "example.com"},
			{Name: testCookieName, Value: "expired", Domain: f.domain, Expires: testNow.Add(-time.Minute)},
		},
	}
	surface.events <- sso.NavigationEvent{
		URL:     f.server.URL + "/",
		Cookies: []sso.Cookie{f.loginCookie("good")},
	}

	s, err := f.exchanger.Authenticate(context.Background(), surface)
	require.NoError(t, err)
	require.Equal(t, "from-cookie", s.AccessToken)
	require.Equal(t, "good", <-f.cookies)
	require.Equal(t, f.server.URL+"/account/login", surface.openedURL)
	require.GreaterOrEqual(t, surface.closeCount(), 1)
	require.Equal(t, sso.StateExchanged, f.exchanger.State())
}

func TestAuthenticate_TokenInRedirectURL(t *testing.T) {
	called := false
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	surface := newFakeSurface()
	surface.events <- sso.NavigationEvent{URL: f.server.URL + "/auth-callback#access_token=frag-token&state=1"}

	s, err := f.exchanger.Authenticate(context.Background(), surface)
	require.NoError(t, err)
	require.Equal(t, "frag-token", s.AccessToken)
	require.False(t, called, "no exchange when the token arrives on navigation")
}

func TestAuthenticate_IgnoresTokenOutsideCallback(t *testing.T) {
	f := newFixture(t, respond(`{"token":"from-cookie"}`))
	surface := newFakeSurface()
	surface.events <- sso.NavigationEvent{URL: f.server.URL + "/account/reset-password?token=reset-otp-123"}
	surface.events <- sso.NavigationEvent{URL: f.server.URL + "/auth-callback/extra?token=nested"}
	surface.events <- sso.NavigationEvent{
		URL:     f.server.URL + "/",
		Cookies: []sso.Cookie{f.loginCookie("good")},
	}

	s, err := f.exchanger.Authenticate(context.Background(), surface)
	require.NoError(t, err)
	require.Equal(t, "from-cookie", s.AccessToken)
	require.Equal(t, "good", <-f.cookies)
}

func TestAuthenticate_NoCallbackConfigured(t *testing.T) {
	server := httptest.NewServer(respond(`{"token":"from-cookie"}`))
	t.Cleanup(server.Close)

	e, err := sso.New(testConfig{siteURL: server.URL, domain: "127.0.0.1", lifetime: time.Hour},
		sso.WithTransport(server.Client().Transport),
		sso.WithNowFunc(func() time.Time { return testNow }),
	)
	require.NoError(t, err)

	surface := newFakeSurface()
	surface.events <- sso.NavigationEvent{URL: server.URL + "/auth-callback?token=ignored"}
	surface.events <- sso.NavigationEvent{
		URL:     server.URL + "/",
		Cookies: []sso.Cookie{{Name: testCookieName, Value: "good", Domain: "127.0.0.1"}},
	}

	s, err := e.Authenticate(context.Background(), surface)
	require.NoError(t, err)
	require.Equal(t, "from-cookie", s.AccessToken)
}

func TestAuthenticate_DismissWithoutCookie(t *testing.T) {
	f := newFixture(t, respond(`{"token":"never"}`))
	surface := newFakeSurface()
	surface.events <- sso.NavigationEvent{URL: f.server.URL + "/account/login"}
	surface.dismiss()

	s, err := f.exchanger.Authenticate(context.Background(), surface)
	require.ErrorIs(t, err, apperrors.ErrMissingCookie)
	require.Empty(t, s.AccessToken)
	require.Equal(t, 1, surface.closeCount())
	require.Equal(t, sso.StateFailed, f.exchanger.State())
}

func TestAuthenticate_OpenFailure(t *testing.T) {
	f := newFixture(t, respond(""))
	surface := newFakeSurface()
	surface.openErr = assert.AnError

	_, err := f.exchanger.Authenticate(context.Background(), surface)
	require.ErrorIs(t, err, assert.AnError)
	require.Equal(t, 1, surface.closeCount())
}

func TestAuthenticate_CancelReleasesEverything(t *testing.T) {
	f := newFixture(t, respond(`{"token":"never"}`))
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	surface := newFakeSurface()
	done := make(chan error, 1)
	go func() {
		_, err := f.exchanger.Authenticate(context.Background(), surface)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return f.exchanger.State() == sso.StateAwaitingLoginCookie
	}, time.Second, 5*time.Millisecond)

	f.exchanger.Cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, apperrors.ErrCancelled)
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Authenticate did not return after Cancel")
	}
	require.Equal(t, 1, surface.closeCount())
}

func TestAuthenticate_ContextDeadline(t *testing.T) {
	f := newFixture(t, respond(`{"token":"never"}`))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.exchanger.Authenticate(ctx, newFakeSurface())
	require.ErrorIs(t, err, apperrors.ErrCancelled)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAuthenticate_SecondAttemptRejected(t *testing.T) {
	f := newFixture(t, respond(`{"token":"first"}`))
	first := newFakeSurface()

	done := make(chan error, 1)
	go func() {
		_, err := f.exchanger.Authenticate(context.Background(), first)
		done <- err
	}()
	require.Eventually(t, func() bool {
		return f.exchanger.State() == sso.StateAwaitingLoginCookie
	}, time.Second, 5*time.Millisecond)

	second := newFakeSurface()
	_, err := f.exchanger.Authenticate(context.Background(), second)
	require.ErrorIs(t, err, apperrors.ErrExchangeInProgress)
	require.Zero(t, second.closeCount(), "rejected attempt never touches its surface")

	_, err = f.exchanger.Exchange(context.Background(), f.loginCookie("abc"))
	require.ErrorIs(t, err, apperrors.ErrExchangeInProgress)

	first.events <- sso.NavigationEvent{URL: f.server.URL + "/", Cookies: []sso.Cookie{f.loginCookie("abc")}}
	require.NoError(t, <-done)

	// The exchanger is free again once the first attempt finished.
	_, err = f.exchanger.Exchange(context.Background(), f.loginCookie("abc"))
	require.NoError(t, err)
}
