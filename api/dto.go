package api

import "time"

// LoginRequest is the login-by-password body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the refresh-token body.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SessionResponse is returned by login-by-password and refresh-token.
type SessionResponse struct {
	Token        string    `json:"token"`
	RefreshToken *string   `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UserID       *int      `json:"userId,omitempty"`
}

// CurrentUserResponse tolerates the naming variants the API has used.
type CurrentUserResponse struct {
	ID               *int    `json:"id"`
	UserNameCamel    *string `json:"userName"`
	UserName         *string `json:"username"`
	Name             *string `json:"name"`
	AvatarURL        *string `json:"avatarUrl"`
	Avatar           *string `json:"avatar"`
	IsEmailConfirmed *bool   `json:"isEmailConfirmed"`
}

type UserLibraryItem struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	AuthorName *string `json:"authorName"`
	CoverURL   *string `json:"coverUrl"`
}

type UserLibraryResponse struct {
	Items []UserLibraryItem `json:"items"`
}

type ChapterItem struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

type WorkContentResponse struct {
	Chapters []ChapterItem `json:"chapters"`
}

type ChapterTextResponse struct {
	Text string `json:"text"`
}

type ReadingPosition struct {
	WorkID    int       `json:"workId"`
	ChapterID int       `json:"chapterId"`
	Offset    float64   `json:"offset"`
	Percent   float64   `json:"percent"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SyncProgressResponse struct {
	Positions []ReadingPosition `json:"positions"`
}

type UpdateProgressRequest struct {
	WorkID    int     `json:"workId"`
	ChapterID int     `json:"chapterId"`
	Offset    float64 `json:"offset"`
	Percent   float64 `json:"percent"`
}
