package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/atreader/api"
	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
}

func (s staticTokens) BearerToken() (string, bool) {
	return s.token, s.token != ""
}

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *api.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := api.New(server.URL, staticTokens{token: token}, api.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := api.New("not a url", nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
}

func TestClient_Do_AttachesBearerAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/account/current-user", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 5, "userName": "reader"}`))
	}, "tok-1")

	var out api.CurrentUserResponse
	require.NoError(t, c.Do(context.Background(), api.CurrentUser(), nil, &out))
	require.Equal(t, 5, *out.ID)
	require.Equal(t, "reader", *out.UserNameCamel)
}

func TestClient_Do_NoTokenNoHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}, "")

	require.NoError(t, c.Do(context.Background(), api.CurrentUser(), nil, nil))
}

func TestClient_Do_SerializesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body api.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body.Email)
		assert.Equal(t, "pw", body.Password)

		_, _ = w.Write([]byte(`{"token":"t","expiresAt":"2026-01-01T00:00:00Z"}`))
	}, "")

	var out api.SessionResponse
	require.NoError(t, c.Do(context.Background(), api.LoginByPassword(), api.LoginRequest{Email: "a@b.c", Password: "pw"}, &out))
	require.Equal(t, "t", out.Token)
	require.True(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Equal(out.ExpiresAt))
}

func TestClient_Do_PaginationQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/account/user-library", r.URL.Path)
		assert.Equal(t, "page=2&pageSize=20", r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}, "tok")

	var out api.UserLibraryResponse
	require.NoError(t, c.Do(context.Background(), api.UserLibrary(2, 20), nil, &out))
}

func TestClient_Do_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantIs      error
		wantMessage string
	}{
		{
			name:        "401 is unauthorized",
			status:      http.StatusUnauthorized,
			body:        "",
			wantIs:      apperrors.ErrUnauthorized,
			wantMessage: "Unauthorized",
		},
		{
			name:        "500 html page is sanitized",
			status:      http.StatusInternalServerError,
			body:        "<!doctype html><html><body><h1>502 Bad Gateway</h1></body></html>",
			wantIs:      apperrors.ErrServer,
			wantMessage: "unexpected server response",
		},
		{
			name:        "json message is extracted",
			status:      http.StatusBadRequest,
			body:        `{"code":"x","message":"Invalid password"}`,
			wantIs:      apperrors.ErrServer,
			wantMessage: "Invalid password",
		},
		{
			name:        "plain text passes through",
			status:      http.StatusConflict,
			body:        "already exists",
			wantIs:      apperrors.ErrServer,
			wantMessage: "already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, "tok")

			err := c.Do(context.Background(), api.CurrentUser(), nil, nil)
			require.ErrorIs(t, err, tt.wantIs)

			var apiErr *apperrors.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.wantMessage, apiErr.Message)
			require.NotContains(t, err.Error(), "<")
		})
	}
}

func TestClient_Do_MalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": "nope"`))
	}, "tok")

	var out api.UserLibraryResponse
	err := c.Do(context.Background(), api.UserLibrary(1, 20), nil, &out)
	require.ErrorIs(t, err, apperrors.ErrMalformedResponse)
}

func TestClient_Do_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := api.New(url, nil)
	require.NoError(t, err)

	err = c.Do(context.Background(), api.CurrentUser(), nil, nil)
	require.ErrorIs(t, err, apperrors.ErrNetworkFailure)
}

func TestClient_Do_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, "tok")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Do(ctx, api.CurrentUser(), nil, nil)
	require.ErrorIs(t, err, apperrors.ErrNetworkFailure)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClient_URL_KeepsBasePath(t *testing.T) {
	c, err := api.New("https://example.test/proxy/", nil)
	require.NoError(t, err)

	u := c.URL(api.ChapterText(3, 4))
	require.Equal(t, "https://example.test/proxy/v1/work/3/chapter/4/text", u.String())
	require.False(t, strings.HasSuffix(u.String(), "?"))
}
