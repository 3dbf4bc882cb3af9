package config

import (
	"os"
	"time"
)

const (
	apiBaseURLVar      = "ATREADER_API_BASE_URL"
	siteBaseURLVar     = "ATREADER_SITE_BASE_URL"
	cookieNameVar      = "ATREADER_LOGIN_COOKIE"
	cookieDomainVar    = "ATREADER_COOKIE_DOMAIN"
	callbackURLVar     = "ATREADER_CALLBACK_URL"
	sessionLifetimeVar = "ATREADER_SSO_SESSION_LIFETIME"
	browserPathVar     = "ATREADER_BROWSER"
	keyringServiceVar  = "ATREADER_KEYRING_SERVICE"
	requestTimeoutVar  = "ATREADER_REQUEST_TIMEOUT"
	logLevelVar        = "ATREADER_LOG_LEVEL"
)

func (s *Settings) applyEnv() {
	s.APIBaseURL = GetEnv(apiBaseURLVar, s.APIBaseURL)
	s.SiteBaseURL = GetEnv(siteBaseURLVar, s.SiteBaseURL)
	s.LoginCookieName = GetEnv(cookieNameVar, s.LoginCookieName)
	s.CookieDomain = GetEnv(cookieDomainVar, s.CookieDomain)
	s.CallbackURL = GetEnv(callbackURLVar, s.CallbackURL)
	s.SessionLifetime = GetDurationEnv(sessionLifetimeVar, s.SessionLifetime)
	s.BrowserPath = GetEnv(browserPathVar, s.BrowserPath)
	s.KeyringService = GetEnv(keyringServiceVar, s.KeyringService)
	s.RequestTimeout = GetDurationEnv(requestTimeoutVar, s.RequestTimeout)
	s.LogLevel = GetEnv(logLevelVar, s.LogLevel)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetDurationEnv parses a Go duration ("90s", "1h"); unparsable values keep the default.
func GetDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
