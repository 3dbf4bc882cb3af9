package sso

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/jrsteele09/atreader/session"
	"github.com/pkg/errors"
)

const bearerScheme = "bearer"

type bearerTokenResponse struct {
	Token string `json:"token"`
}

// parseBearerToken accepts {"token": "..."}, a JSON string or raw text.
// Bodies starting with '{' that do not carry a token are malformed, so a JSON
// error document is never taken as a literal token.
func parseBearerToken(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", apperrors.ErrMissingToken
	}

	if trimmed[0] == '{' {
		var dto bearerTokenResponse
		if err := json.Unmarshal(trimmed, &dto); err != nil {
			return "", errors.Wrapf(apperrors.ErrMalformedResponse, "decode bearer-token body: %v", err)
		}
		token := normalizeToken(dto.Token)
		if token == "" {
			return "", errors.Wrap(apperrors.ErrMalformedResponse, "bearer-token body has no token field")
		}
		return token, nil
	}

	raw := string(trimmed)
	var quoted string
	if trimmed[0] == '"' && json.Unmarshal(trimmed, &quoted) == nil {
		raw = quoted
	} else {
		raw = strings.ReplaceAll(raw, `"`, "")
	}

	token := normalizeToken(raw)
	if token == "" {
		return "", apperrors.ErrMissingToken
	}
	return token, nil
}

// normalizeToken strips a case-insensitive "bearer" scheme word and
// surrounding whitespace. A bare "Bearer" normalizes to "".
func normalizeToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) < len(bearerScheme) || !strings.EqualFold(token[:len(bearerScheme)], bearerScheme) {
		return token
	}
	rest := token[len(bearerScheme):]
	if rest == "" {
		return ""
	}
	if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsSpace(r) {
		return token
	}
	return strings.TrimSpace(rest)
}

// tokenFromURL returns a token or access_token carried in the query or
// fragment of a navigation URL.
func tokenFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	for _, values := range []url.Values{u.Query(), fragmentValues(u.Fragment)} {
		for _, key := range []string{"token", "access_token"} {
			if t := normalizeToken(values.Get(key)); t != "" {
				return t
			}
		}
	}
	return ""
}

func fragmentValues(fragment string) url.Values {
	if fragment == "" {
		return url.Values{}
	}
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return url.Values{}
	}
	return values
}

// newSession builds the session for an exchanged token. The exchange endpoint
// returns no expiry, so lifetime applies; a JWT token's own exp and numeric
// user id claim are honoured when present. The signature is not verified here,
// the API does that on every call.
func newSession(token string, now time.Time, lifetime time.Duration) session.Session {
	s := session.Session{
		AccessToken: token,
		ExpiresAt:   now.Add(lifetime),
	}
	if strings.Count(token, ".") != 2 {
		return s
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return s
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return s
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Time.Before(s.ExpiresAt) {
		s.ExpiresAt = exp.Time
	}
	for _, key := range []string{"userId", "uid", "nameid", "sub"} {
		if id, ok := numericClaim(claims[key]); ok {
			s.UserID = &id
			break
		}
	}
	return s
}

func numericClaim(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case string:
		if id, err := strconv.Atoi(n); err == nil {
			return id, true
		}
	}
	return 0, false
}
