package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrEmailRequired       = errors.New("user: email is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrFullNameRequired    = errors.New("user: full name is required")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrUsernameTaken       = errors.New("user: username already taken")
	ErrNotFound            = errors.New("user: not found")
)

// DefaultAvatarURL is served for accounts that never uploaded a picture.
const DefaultAvatarURL = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_960_720.png"

type ID string

type User struct {
	ID             ID
	Email          string
	FullName       string
	Username       string
	Bio            string
	ProfilePicture string
	CoverPhoto     string
	Location       string
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByIDs(ctx context.Context, ids []ID) (map[ID]*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	Email        string
	FullName     string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func New(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	fullName := strings.TrimSpace(params.FullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &User{
		ID:             ID(id),
		Email:          email,
		FullName:       fullName,
		Username:       strings.TrimSpace(params.Username),
		Bio:            "Hey there! I am using SarvTribe.",
		ProfilePicture: DefaultAvatarURL,
		PasswordHash:   params.PasswordHash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (u *User) UpdateProfile(fullName, username, bio, location string, now time.Time) error {
	trimmed := strings.TrimSpace(fullName)
	if trimmed == "" {
		return ErrFullNameRequired
	}
	u.FullName = trimmed
	u.Username = strings.TrimSpace(username)
	u.Bio = strings.TrimSpace(bio)
	u.Location = strings.TrimSpace(location)
	u.touch(now)
	return nil
}

func (u *User) SetProfilePicture(url string, now time.Time) {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultAvatarURL
	}
	u.ProfilePicture = url
	u.touch(now)
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return ErrPasswordHashMissing
	}
	u.PasswordHash = hash
	u.touch(now)
	return nil
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
