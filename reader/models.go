// Package reader maps the platform's account, library and reading endpoints
// onto domain types.
package reader

import (
	"net/url"
	"time"
)

const unknownName = "Unknown"

type User struct {
	ID               int
	Username         string
	AvatarURL        *url.URL
	IsEmailConfirmed bool
}

// Work is a book in the user's library.
type Work struct {
	ID         int
	Title      string
	AuthorName string
	CoverURL   *url.URL
}

type Chapter struct {
	ID     int
	WorkID int
	Title  string
	Order  int
}

// ReadingPosition is how far the user got in a chapter. Offset is the scroll
// offset; Percent is 0..100.
type ReadingPosition struct {
	WorkID    int
	ChapterID int
	Offset    float64
	Percent   float64
	UpdatedAt time.Time
}
