// Package progress keeps reading positions on the device and reconciles them
// with the server.
package progress

import "github.com/jrsteele09/atreader/reader"

// Repo stores at most one position per work and chapter.
type Repo interface {
	SaveLocal(position reader.ReadingPosition) error
	LoadLocal(workID, chapterID int) (*reader.ReadingPosition, error)
	ListLocal() ([]reader.ReadingPosition, error)
}
