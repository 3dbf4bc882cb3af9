package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// QueryParam is one query parameter. Routes keep them as an ordered list so
// the encoded query string is stable.
type QueryParam struct {
	Name  string
	Value string
}

// Route is one logical API operation.
type Route struct {
	Name   string
	Method string
	Path   string
	Query  []QueryParam

	// Retryable marks whether a caller may refresh the session and retry once
	// after a 401. Login and refresh are never retryable.
	Retryable bool
}

// RawQuery encodes Query in declaration order.
func (r Route) RawQuery() string {
	if len(r.Query) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Query))
	for _, q := range r.Query {
		parts = append(parts, url.QueryEscape(q.Name)+"="+url.QueryEscape(q.Value))
	}
	return strings.Join(parts, "&")
}

func (r Route) String() string {
	return r.Method + " " + r.Path
}

func LoginByPassword() Route {
	return Route{Name: "login-by-password", Method: http.MethodPost, Path: "/v1/account/login-by-password"}
}

func RefreshToken() Route {
	return Route{Name: "refresh-token", Method: http.MethodPost, Path: "/v1/account/refresh-token"}
}

func CurrentUser() Route {
	return Route{Name: "current-user", Method: http.MethodGet, Path: "/v1/account/current-user", Retryable: true}
}

func UserLibrary(page, pageSize int) Route {
	return Route{
		Name:   "user-library",
		Method: http.MethodGet,
		Path:   "/v1/account/user-library",
		Query: []QueryParam{
			{Name: "page", Value: strconv.Itoa(page)},
			{Name: "pageSize", Value: strconv.Itoa(pageSize)},
		},
		Retryable: true,
	}
}

func WorkContent(workID int) Route {
	return Route{
		Name:      "work-content",
		Method:    http.MethodGet,
		Path:      fmt.Sprintf("/v1/work/%d/content", workID),
		Retryable: true,
	}
}

func ChapterText(workID, chapterID int) Route {
	return Route{
		Name:      "chapter-text",
		Method:    http.MethodGet,
		Path:      fmt.Sprintf("/v1/work/%d/chapter/%d/text", workID, chapterID),
		Retryable: true,
	}
}

// ReadingProgress syncs positions changed since lastSyncTime; nil fetches all.
func ReadingProgress(lastSyncTime *time.Time) Route {
	r := Route{
		Name:      "reading-progress",
		Method:    http.MethodGet,
		Path:      "/v1/account/reading-progress",
		Retryable: true,
	}
	if lastSyncTime != nil && !lastSyncTime.IsZero() {
		r.Query = []QueryParam{{Name: "lastSyncTime", Value: lastSyncTime.UTC().Format(time.RFC3339)}}
	}
	return r
}

func UpdateProgress() Route {
	return Route{Name: "update-progress", Method: http.MethodPost, Path: "/v1/reader/update-progress", Retryable: true}
}
