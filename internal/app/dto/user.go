package dto

import (
	"time"

	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
)

type UserProfile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Username       string    `json:"username,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CoverPhoto     string    `json:"cover_photo,omitempty"`
	Location       string    `json:"location,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserSummary carries the display fields embedded in message payloads.
type UserSummary struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

func MapUserProfile(user *domainuser.User) UserProfile {
	if user == nil {
		return UserProfile{}
	}
	return UserProfile{
		ID:             string(user.ID),
		Email:          user.Email,
		FullName:       user.FullName,
		Username:       user.Username,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		CoverPhoto:     user.CoverPhoto,
		Location:       user.Location,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func MapUserSummary(user *domainuser.User) UserSummary {
	if user == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:             string(user.ID),
		FullName:       user.FullName,
		Username:       user.Username,
		ProfilePicture: user.ProfilePicture,
	}
}

func NewAuthResponse(user *domainuser.User, token string) AuthResponse {
	return AuthResponse{
		User:  MapUserProfile(user),
		Token: token,
	}
}
