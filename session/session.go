// Package session holds the device's single bearer-token session and the
// manager that owns it.
package session

import (
	"time"

	"golang.org/x/oauth2"
)

// Session is the one active API credential on this device.
// It is created on login or SSO exchange, replaced wholesale on refresh and
// destroyed on logout. Serialized as JSON with RFC 3339 timestamps.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken *string   `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UserID       *int      `json:"userId,omitempty"`
}

// Valid reports whether the session can authorize new requests at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.After(now)
}

// Expired is the inverse of Valid for a non-nil session.
func (s *Session) Expired(now time.Time) bool {
	return !s.Valid(now)
}

// OAuth2Token exposes the session as an oauth2 bearer token.
func (s *Session) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken: s.AccessToken,
		TokenType:   "Bearer",
		Expiry:      s.ExpiresAt,
	}
	if s.RefreshToken != nil {
		tok.RefreshToken = *s.RefreshToken
	}
	return tok
}

func (s Session) clone() *Session {
	c := s
	if s.RefreshToken != nil {
		rt := *s.RefreshToken
		c.RefreshToken = &rt
	}
	if s.UserID != nil {
		id := *s.UserID
		c.UserID = &id
	}
	return &c
}
