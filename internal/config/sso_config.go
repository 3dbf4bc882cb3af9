package config

import (
	"strings"
	"time"
)

type SSOConfig interface {
	GetLoginURL() string
	GetBearerTokenURL() string
	GetLoginCookieName() string
	GetCookieDomain() string
	GetCallbackURL() string
	GetSSOSessionLifetime() time.Duration
	GetBrowserPath() string
}

func (s *Settings) GetLoginURL() string {
	return strings.TrimRight(s.SiteBaseURL, "/") + s.LoginPath
}

func (s *Settings) GetBearerTokenURL() string {
	return strings.TrimRight(s.SiteBaseURL, "/") + s.BearerTokenPath
}

func (s *Settings) GetLoginCookieName() string {
	return s.LoginCookieName
}

func (s *Settings) GetCookieDomain() string {
	return s.CookieDomain
}

// GetCallbackURL is the redirect target that may carry the token directly.
// Only a navigation to exactly this URL is read for a token.
func (s *Settings) GetCallbackURL() string {
	return s.CallbackURL
}

// GetSSOSessionLifetime is the expiry given to exchanged sessions; the
// bearer-token endpoint does not report one.
func (s *Settings) GetSSOSessionLifetime() time.Duration {
	return s.SessionLifetime
}

// GetBrowserPath is an optional Chrome/Chromium executable for the SSO window.
func (s *Settings) GetBrowserPath() string {
	return s.BrowserPath
}
