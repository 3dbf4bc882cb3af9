package sso

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeToken(t *testing.T) {
	require.Equal(t, "abc", normalizeToken("Bearer abc"))
	require.Equal(t, "abc", normalizeToken("  BEARER   abc "))
	require.Equal(t, "bearerabc", normalizeToken("bearerabc"))
	require.Equal(t, "bearer-abc", normalizeToken("bearer-abc"))
	require.Equal(t, "abc", normalizeToken("bearer\tabc"))
	require.Empty(t, normalizeToken("Bearer "))
	require.Empty(t, normalizeToken("  bearer"))
}

func TestTokenFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://author.today/cb?token=q1", "q1"},
		{"https://author.today/cb?access_token=q2", "q2"},
		{"https://author.today/cb#token=f1&x=1", "f1"},
		{"https://author.today/cb?token=&other=1", ""},
		{"https://author.today/account/login?returnUrl=%2F", ""},
		{"::not a url", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			require.Equal(t, tt.want, tokenFromURL(tt.url))
		})
	}
}

func TestNewSession_OpaqueToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newSession("opaque", now, time.Hour)
	require.Equal(t, "opaque", s.AccessToken)
	require.Equal(t, now.Add(time.Hour), s.ExpiresAt)
	require.Nil(t, s.RefreshToken)
	require.Nil(t, s.UserID)
}

func TestNewSession_MalformedJWTFallsBack(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newSession("a.b.c", now, time.Hour)
	require.Equal(t, "a.b.c", s.AccessToken)
	require.Equal(t, now.Add(time.Hour), s.ExpiresAt)
}

func TestMatchesDomain(t *testing.T) {
	require.True(t, matchesDomain(".author.today", "author.today"))
	require.True(t, matchesDomain("www.Author.Today", "author.today"))
	require.False(t, matchesDomain("notauthor.today", "author.today"))
	require.False(t, matchesDomain("", "author.today"))
}

func TestFindLoginCookie(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cookies := []Cookie{
		{Name: "LoginCookie", Value: "", Domain: "author.today"},
		{Name: "LoginCookie", Value: "old", Domain: "author.today", Expires: now},
		{Name: "LoginCookie", Value: "first", Domain: ".author.today", Expires: now.Add(time.Hour)},
		{Name: "LoginCookie", Value: "second", Domain: "author.today"},
	}
	c, ok := findLoginCookie(cookies, "LoginCookie", "author.today", now)
	require.True(t, ok)
	require.Equal(t, "first", c.Value)

	_, ok = findLoginCookie(cookies, "Missing", "author.today", now)
	require.False(t, ok)
}
