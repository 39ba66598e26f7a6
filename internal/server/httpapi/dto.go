package httpapi

import (
	"errors"
	"regexp"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/server/auth"
	"github.com/dmitrijs2005/lingoplay/internal/server/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Titles and usernames become path segments of storage keys.
var segment = regexp.MustCompile(`^[^/\\]+$`)

var notDots = validation.NewStringRule(func(s string) bool {
	return s != "." && s != ".."
}, "must not be a relative path")

// Length counts runes, bcrypt counts bytes.
var passwordBytes = validation.By(func(value interface{}) error {
	if s, _ := value.(string); len(s) > auth.MaxPasswordBytes {
		return errors.New("must be at most 72 bytes long")
	}
	return nil
})

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(1, 64), validation.Match(segment)),
		validation.Field(&r.Password, validation.Required, passwordBytes),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type gameRequest struct {
	Title string `json:"title"`
}

func (r gameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
	)
}

// videoForm holds the text fields of a multipart video upload.
type videoForm struct {
	Title  string
	GameID string
}

func (f videoForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.Length(1, 255), validation.Match(segment), notDots),
		validation.Field(&f.GameID, is.Int),
	)
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Username: u.Username}
}

// tokenResponse is returned by login and refresh. The refresh token only
// travels in its cookie.
type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type gameResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func newGameResponse(g *models.Game) gameResponse {
	return gameResponse{ID: g.ID, Title: g.Title, UserID: g.UserID, CreatedAt: g.CreatedAt}
}

type videoResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	GameID    *int64    `json:"game_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
}

func newVideoResponse(v *models.Video, url string) videoResponse {
	return videoResponse{
		ID:        v.ID,
		Title:     v.Title,
		Path:      v.Path,
		GameID:    v.GameID,
		UserID:    v.UserID,
		CreatedAt: v.CreatedAt,
		URL:       url,
	}
}
