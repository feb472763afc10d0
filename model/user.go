package model

import (
	"database/sql"
	"time"
)

// User type values stored on UserProfile.
const (
	UserTypeListener = "listener"
	UserTypeArtist   = "artist"
)

// User represents an account in the system.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not exposed in API responses
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserProfile carries listener/artist role and taste data for a user.
// Exactly one profile exists per user; it is created in the same
// transaction as the user row.
type UserProfile struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"userId"`
	UserType       string         `json:"userType"` // listener or artist
	Bio            sql.NullString `json:"bio,omitempty"`
	ProfilePicture sql.NullString `json:"profilePicture,omitempty"`
	Location       sql.NullString `json:"location,omitempty"`
	Website        sql.NullString `json:"website,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// IsArtist reports whether the profile is artist-typed.
func (p *UserProfile) IsArtist() bool {
	return p.UserType == UserTypeArtist
}
