package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config interface {
	APIConfig
	SSOConfig
	StoreConfig
	LogConfig
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetUserAgent() string
}

type StoreConfig interface {
	GetKeyringService() string
}

type LogConfig interface {
	GetLogLevel() string
}

// Settings is the loaded configuration. Zero values are replaced by defaults.
type Settings struct {
	APIBaseURL      string        `yaml:"api_base_url" validate:"required,url"`
	SiteBaseURL     string        `yaml:"site_base_url" validate:"required,url"`
	LoginPath       string        `yaml:"login_path" validate:"required,startswith=/"`
	BearerTokenPath string        `yaml:"bearer_token_path" validate:"required,startswith=/"`
	LoginCookieName string        `yaml:"login_cookie_name" validate:"required"`
	CookieDomain    string        `yaml:"cookie_domain" validate:"required,hostname_rfc1123"`
	CallbackURL     string        `yaml:"callback_url" validate:"omitempty,url"`
	SessionLifetime time.Duration `yaml:"sso_session_lifetime" validate:"gt=0"`
	BrowserPath     string        `yaml:"browser_path"`
	KeyringService  string        `yaml:"keyring_service" validate:"required"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"gte=0"`
	UserAgent       string        `yaml:"user_agent" validate:"required"`
	LogLevel        string        `yaml:"log_level" validate:"oneof=trace debug info warn error fatal panic disabled"`
}

var _ Config = (*Settings)(nil)

// Default returns the built-in configuration.
func Default() *Settings {
	return &Settings{
		APIBaseURL:      "https://api.author.today",
		SiteBaseURL:     "https://author.today",
		LoginPath:       "/account/login",
		BearerTokenPath: "/account/bearer-token",
		LoginCookieName: "LoginCookie",
		CookieDomain:    "author.today",
		CallbackURL:     "atreader://auth-callback",
		SessionLifetime: time.Hour,
		KeyringService:  "app.author.today",
		RequestTimeout:  30 * time.Second,
		UserAgent:       "atreader",
		LogLevel:        "info",
	}
}

// New returns defaults overridden by environment variables.
func New() Config {
	s := Default()
	s.applyEnv()
	return s
}

// Load reads the YAML file at path (if it exists) over the defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Settings, error) {
	s := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, errors.Wrapf(apperrors.ErrInvalidConfiguration, "parse config file: %v", err)
			}
		}
	}

	s.applyDefaults()
	s.applyEnv()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings and reports ErrInvalidConfiguration.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return errors.Wrapf(apperrors.ErrInvalidConfiguration, "%v", err)
	}
	return nil
}

// applyDefaults restores defaults for fields a config file left empty.
func (s *Settings) applyDefaults() {
	d := Default()
	if s.APIBaseURL == "" {
		s.APIBaseURL = d.APIBaseURL
	}
	if s.SiteBaseURL == "" {
		s.SiteBaseURL = d.SiteBaseURL
	}
	if s.LoginPath == "" {
		s.LoginPath = d.LoginPath
	}
	if s.BearerTokenPath == "" {
		s.BearerTokenPath = d.BearerTokenPath
	}
	if s.LoginCookieName == "" {
		s.LoginCookieName = d.LoginCookieName
	}
	if s.CookieDomain == "" {
		s.CookieDomain = d.CookieDomain
	}
	if s.CallbackURL == "" {
		s.CallbackURL = d.CallbackURL
	}
	if s.SessionLifetime == 0 {
		s.SessionLifetime = d.SessionLifetime
	}
	if s.KeyringService == "" {
		s.KeyringService = d.KeyringService
	}
	if s.UserAgent == "" {
		s.UserAgent = d.UserAgent
	}
	if s.LogLevel == "" {
		s.LogLevel = d.LogLevel
	}
}

func (s *Settings) GetAPIBaseURL() string            { return s.APIBaseURL }
func (s *Settings) GetRequestTimeout() time.Duration { return s.RequestTimeout }
func (s *Settings) GetUserAgent() string             { return s.UserAgent }
func (s *Settings) GetKeyringService() string        { return s.KeyringService }
func (s *Settings) GetLogLevel() string              { return s.LogLevel }
