package sso

import (
	"context"
	"strings"
	"time"
)

// Cookie is a cookie observed in the web surface's cookie jar. It is never
// persisted.
type Cookie struct {
	Name    string
	Value   string
	Domain  string
	Expires time.Time
}

// NavigationEvent is emitted each time the surface finishes loading a page.
type NavigationEvent struct {
	URL     string
	Cookies []Cookie
}

// Surface is an embedded browsing surface with cookie-jar introspection.
type Surface interface {
	// Open loads loginURL and streams a NavigationEvent after every completed
	// navigation. The channel is closed when the surface closes (user dismiss)
	// or ctx is done.
	Open(ctx context.Context, loginURL string) (<-chan NavigationEvent, error)

	// Close tears the surface down. It is safe to call more than once.
	Close() error
}

// matchesDomain reports whether a cookie set for cookieDomain belongs to domain.
func matchesDomain(cookieDomain, domain string) bool {
	c := strings.ToLower(strings.TrimPrefix(cookieDomain, "."))
	d := strings.ToLower(strings.TrimPrefix(domain, "."))
	if c == "" || d == "" {
		return false
	}
	return c == d || strings.HasSuffix(c, "."+d)
}

// findLoginCookie returns the first non-empty cookie named name on domain.
func findLoginCookie(cookies []Cookie, name, domain string, now time.Time) (Cookie, bool) {
	for _, c := range cookies {
		if c.Name != name || c.Value == "" {
			continue
		}
		if !matchesDomain(c.Domain, domain) {
			continue
		}
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		return c, true
	}
	return Cookie{}, false
}
