// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// User represents a registered account.
//
// Accounts are created on the first GitHub sign-in, so GitHubID is the
// external identity and ID is our own xid. Email may be empty when the
// GitHub profile hides it; the column is stored as NULL in that case so the
// UNIQUE constraint only applies to real addresses.
//
// RollNo, Branch and Phone are filled in by onboarding and stay empty until then.
type User struct {
	ID        string    `json:"id"        db:"id"`
	GitHubID  int64     `json:"githubId"  db:"github_id"`
	Login     string    `json:"login"     db:"login"`
	Name      string    `json:"name"      db:"name"`
	Email     string    `json:"email"     db:"email"`
	AvatarURL string    `json:"avatarUrl" db:"avatar_url"`
	Role      Role      `json:"role"      db:"role"`
	RollNo    string    `json:"rollNo"    db:"roll_no"`
	Branch    string    `json:"branch"    db:"branch"`
	Phone     string    `json:"phone"     db:"phone"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Onboarded reports whether the profile fields have been completed.
func (u *User) Onboarded() bool {
	return u.RollNo != "" && u.Branch != "" && u.Phone != ""
}

// DisplayName prefers the profile name and falls back to the GitHub login.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}
