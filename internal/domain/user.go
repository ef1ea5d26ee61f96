package domain

import (
	"time"
)

// User roles, in increasing order of privilege.
const (
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
	RoleAdmin     = "ADMIN"
)

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Profile visibility levels.
const (
	VisibilityPublic      = "PUBLIC"
	VisibilityFriendsOnly = "FRIENDS_ONLY"
	VisibilityPrivate     = "PRIVATE"
)

// IsValidVisibility reports whether v is one of the known visibility levels.
func IsValidVisibility(v string) bool {
	switch v {
	case VisibilityPublic, VisibilityFriendsOnly, VisibilityPrivate:
		return true
	}
	return false
}

// Experience point awards per action.
const (
	XPVacationCreated    = 50
	XPMemoryUploaded     = 15
	XPPostCreated        = 10
	XPActivityCreated    = 10
	XPFriendshipAccepted = 5
)

// User represents a registered user.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Usertag      string    `json:"usertag"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	BannerURL    string    `json:"banner_url,omitempty"`
	Location     string    `json:"location,omitempty"`
	Website      string    `json:"website,omitempty"`
	Visibility   string    `json:"visibility"`
	Experience   int       `json:"experience_points"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicProfile is the view of a user exposed to other users. Email and role
// stay private.
type PublicProfile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Usertag    string    `json:"usertag"`
	Bio        string    `json:"bio,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	BannerURL  string    `json:"banner_url,omitempty"`
	Location   string    `json:"location,omitempty"`
	Website    string    `json:"website,omitempty"`
	Experience int       `json:"experience_points"`
	CreatedAt  time.Time `json:"created_at"`
}

// Public returns the public view of the user.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		Name:       u.Name,
		Usertag:    u.Usertag,
		Bio:        u.Bio,
		AvatarURL:  u.AvatarURL,
		BannerURL:  u.BannerURL,
		Location:   u.Location,
		Website:    u.Website,
		Experience: u.Experience,
		CreatedAt:  u.CreatedAt,
	}
}
