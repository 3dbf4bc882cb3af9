package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	apperrors "github.com/jrsteele09/atreader/internal/errors"
)

const (
	// MaxErrorMessageLength bounds the message carried by an APIError, in runes.
	MaxErrorMessageLength = 200

	unexpectedResponseMessage = "unexpected server response"
	ellipsis                  = "…"
)

// ErrorFromResponse builds the typed error for a non-2xx response.
func ErrorFromResponse(statusCode int, body []byte) error {
	return &apperrors.APIError{
		StatusCode: statusCode,
		Message:    SanitizeMessage(statusCode, body),
	}
}

// SanitizeMessage extracts a short, presentable message from an error body.
// HTML pages collapse to a generic message and long text is truncated.
func SanitizeMessage(statusCode int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" || !utf8.ValidString(text) {
		return defaultMessage(statusCode)
	}
	if looksLikeHTML(text) {
		return unexpectedResponseMessage
	}
	if msg := messageFromJSON(text); msg != "" {
		text = msg
	}
	return truncate(collapseWhitespace(text), MaxErrorMessageLength)
}

func defaultMessage(statusCode int) string {
	if statusCode == http.StatusUnauthorized {
		return "Unauthorized"
	}
	if t := http.StatusText(statusCode); t != "" {
		return t
	}
	return unexpectedResponseMessage
}

func looksLikeHTML(text string) bool {
	head := strings.ToLower(text)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<html") ||
		strings.Contains(head, "<body") ||
		strings.Contains(head, "<head")
}

// messageFromJSON recognises the usual error envelopes: {"message": ...},
// {"error": ...}, {"title": ...}, {"detail": ...}.
func messageFromJSON(text string) string {
	if !strings.HasPrefix(text, "{") {
		return ""
	}
	var envelope map[string]any
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "errorDescription", "error_description", "title", "detail"} {
		if s, ok := envelope[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-utf8.RuneCountInString(ellipsis)]) + ellipsis
}
