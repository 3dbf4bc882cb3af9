package reader

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/atreader/api"
	"github.com/jrsteele09/atreader/internal/utils"
	"github.com/pkg/errors"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

var (
	_ AccountRepo = (*Repository)(nil)
	_ LibraryRepo = (*Repository)(nil)
	_ ReaderRepo  = (*Repository)(nil)
)

// Repository makes exactly one API call per method. Pass the auth service as
// the caller to get refresh-and-retry.
type Repository struct {
	api api.Caller
}

func NewRepository(caller api.Caller) (*Repository, error) {
	if caller == nil {
		return nil, errors.New("[NewRepository] caller is required")
	}
	return &Repository{api: caller}, nil
}

func (r *Repository) CurrentUser(ctx context.Context) (*User, error) {
	var dto api.CurrentUserResponse
	if err := r.api.Do(ctx, api.CurrentUser(), nil, &dto); err != nil {
		return nil, errors.Wrap(err, "[Repository.CurrentUser]")
	}
	return userFromDTO(dto), nil
}

// FetchLibrary returns one page of the library. Non-positive arguments take
// the defaults.
func (r *Repository) FetchLibrary(ctx context.Context, page, pageSize int) ([]Work, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var dto api.UserLibraryResponse
	if err := r.api.Do(ctx, api.UserLibrary(page, pageSize), nil, &dto); err != nil {
		return nil, errors.Wrap(err, "[Repository.FetchLibrary]")
	}

	works := make([]Work, 0, len(dto.Items))
	for _, item := range dto.Items {
		works = append(works, Work{
			ID:         item.ID,
			Title:      item.Title,
			AuthorName: firstNonEmpty(unknownName, item.AuthorName),
			CoverURL:   parseURL(item.CoverURL),
		})
	}
	return works, nil
}

func (r *Repository) FetchWorkContent(ctx context.Context, workID int) ([]Chapter, error) {
	var dto api.WorkContentResponse
	if err := r.api.Do(ctx, api.WorkContent(workID), nil, &dto); err != nil {
		return nil, errors.Wrapf(err, "[Repository.FetchWorkContent] work %d", workID)
	}

	chapters := make([]Chapter, 0, len(dto.Chapters))
	for _, c := range dto.Chapters {
		chapters = append(chapters, Chapter{ID: c.ID, WorkID: workID, Title: c.Title, Order: c.Order})
	}
	return chapters, nil
}

func (r *Repository) FetchChapterText(ctx context.Context, workID, chapterID int) (string, error) {
	var dto api.ChapterTextResponse
	if err := r.api.Do(ctx, api.ChapterText(workID, chapterID), nil, &dto); err != nil {
		return "", errors.Wrapf(err, "[Repository.FetchChapterText] work %d chapter %d", workID, chapterID)
	}
	return dto.Text, nil
}

func (r *Repository) SendProgress(ctx context.Context, position ReadingPosition) error {
	body := api.UpdateProgressRequest{
		WorkID:    position.WorkID,
		ChapterID: position.ChapterID,
		Offset:    position.Offset,
		Percent:   position.Percent,
	}
	if err := r.api.Do(ctx, api.UpdateProgress(), body, nil); err != nil {
		return errors.Wrap(err, "[Repository.SendProgress]")
	}
	return nil
}

// SyncProgress returns the server positions changed since the given time, or
// all of them when since is nil.
func (r *Repository) SyncProgress(ctx context.Context, since *time.Time) ([]ReadingPosition, error) {
	var dto api.SyncProgressResponse
	if err := r.api.Do(ctx, api.ReadingProgress(since), nil, &dto); err != nil {
		return nil, errors.Wrap(err, "[Repository.SyncProgress]")
	}

	positions := make([]ReadingPosition, 0, len(dto.Positions))
	for _, p := range dto.Positions {
		positions = append(positions, ReadingPosition{
			WorkID:    p.WorkID,
			ChapterID: p.ChapterID,
			Offset:    p.Offset,
			Percent:   p.Percent,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return positions, nil
}

func userFromDTO(dto api.CurrentUserResponse) *User {
	return &User{
		ID:               utils.Value(dto.ID),
		Username:         firstNonEmpty(unknownName, dto.UserNameCamel, dto.UserName, dto.Name),
		AvatarURL:        parseURL(firstNonNil(dto.AvatarURL, dto.Avatar)),
		IsEmailConfirmed: utils.Value(dto.IsEmailConfirmed),
	}
}

// firstNonEmpty returns the first non-blank value, or fallback.
func firstNonEmpty(fallback string, values ...*string) string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return *v
		}
	}
	return fallback
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func parseURL(raw *string) *url.URL {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil
	}
	return u
}
