// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Rank is the coarse authorization level of an account.
// There are only two levels — "default" and "admin" — so a string (with
// constants) is simpler than a numeric enum and reads well in the database.
type Rank string

const (
	RankDefault Rank = "default"
	RankAdmin   Rank = "admin"
)

// User represents a registered user account.
//
// WHY PasswordHash WITH json:"-"?
// The `json:"-"` tag tells encoding/json to NEVER serialize this field.
// A User struct can then be written straight into an API response without
// leaking the bcrypt hash — there is no "remember to strip the password"
// step that someone can forget.
//
// WHY GitHubID int64 (and zero means "none")?
// Users who register with a password have no GitHub account linked, so the
// field is 0 for them. GitHub user IDs start at 1, so 0 is a safe sentinel
// and avoids a nullable pointer. The UNIQUE index in the DB only covers
// non-zero values.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`    // unique, chosen at registration
	Email        string    `json:"email"`       // unique
	PasswordHash string    `json:"-"`           // bcrypt hash, never serialized
	DisplayName  string    `json:"displayName"` // free-form, defaults to username
	Bio          string    `json:"bio"`
	Location     string    `json:"location"`
	Website      string    `json:"website"`
	AvatarURL    string    `json:"avatarUrl"`
	Rank         Rank      `json:"rank"`
	GitHubID     int64     `json:"-"` // 0 unless the account is linked to GitHub
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin rank.
func (u *User) IsAdmin() bool {
	return u.Rank == RankAdmin
}
