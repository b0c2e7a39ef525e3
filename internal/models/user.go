package models

import (
	"encoding/json"
	"time"
)

// User represents an account in the system
type User struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	Avatar        string          `json:"avatar"`
	Bio           string          `json:"bio"`
	Settings      json.RawMessage `json:"settings"`
	OAuthProvider string          `json:"-"`
	OAuthSubject  string          `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	LastLogin     *time.Time      `json:"last_login,omitempty"`
}

// PublicUser is the subset of a user visible to other users
type PublicUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

// Public strips private fields from u
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}

// UserStats are the social and progress counters shown on a profile
type UserStats struct {
	Points       PointsLedger `json:"points"`
	Achievements int          `json:"achievements"`
	Followers    int          `json:"followers"`
	Following    int          `json:"following"`
	Plannings    int          `json:"plannings"`
}

// UserProfile is the public profile page of a user
type UserProfile struct {
	User        PublicUser `json:"user"`
	Stats       UserStats  `json:"stats"`
	IsFollowing bool       `json:"isFollowing"`
	Plannings   []Planning `json:"plannings"`
}
