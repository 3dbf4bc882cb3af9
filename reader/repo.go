package reader

import (
	"context"
	"time"
)

// AccountRepo reads the signed-in account.
type AccountRepo interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// LibraryRepo pages through the user's library.
type LibraryRepo interface {
	FetchLibrary(ctx context.Context, page, pageSize int) ([]Work, error)
}

// ReaderRepo fetches chapters and exchanges reading progress with the server.
type ReaderRepo interface {
	FetchWorkContent(ctx context.Context, workID int) ([]Chapter, error)
	FetchChapterText(ctx context.Context, workID, chapterID int) (string, error)
	SendProgress(ctx context.Context, position ReadingPosition) error
	SyncProgress(ctx context.Context, since *time.Time) ([]ReadingPosition, error)
}
