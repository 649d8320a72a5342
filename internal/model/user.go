package model

import (
	"time"
)

const (
	AuthProviderLocal  = "local"
	AuthProviderGoogle = "google"
)

type User struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	PasswordHash   *string   `db:"password_hash"` // Nullable for OAuth-only accounts
	GoogleID       *string   `db:"google_id"`
	Name           *string   `db:"name"`
	ProfilePicture *string   `db:"profile_picture"`
	AuthProvider   string    `db:"auth_provider"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// UserView is the sanitized user shape returned to clients.
// Credential fields (password hash, google id) are stripped.
type UserView struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           *string   `json:"name"`
	ProfilePicture *string   `json:"profilePicture"`
	AuthProvider   string    `json:"authProvider"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) View() *UserView {
	return &UserView{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		ProfilePicture: u.ProfilePicture,
		AuthProvider:   u.AuthProvider,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
