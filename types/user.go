package types

import (
	"encoding/json"
	"time"
)

// Role is the authorization level of a user account. Exactly one role is
// stored per user; any boolean admin check is derived from it.
type Role string

const (
	// RoleMember is an ordinary client account.
	RoleMember Role = "member"

	// RoleAdmin grants access to the back-office console.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// User represents an account in the system.
// It contains identity, role, profile, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's email address, stored lower-cased. It is the
	// unique login identifier.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Phone is an optional US phone number.
	Phone string `json:"phone,omitempty" db:"phone"`

	// Role indicates the user's authorization level within the system.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// AvatarKey references the user's avatar in the avatars blob bucket.
	// Empty when no avatar has been uploaded.
	AvatarKey string `json:"avatarKey,omitempty" db:"avatar_key"`

	// ResetToken and ResetExpires hold an outstanding password-reset
	// token, if any. Never exposed in API responses.
	ResetToken   string    `json:"-" db:"reset_token"`
	ResetExpires time.Time `json:"-" db:"reset_expires"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// MarshalJSON adds a derived isAdmin field for compatibility with the
// legacy payload shape. The flag is never stored.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		IsAdmin bool `json:"isAdmin"`
	}{alias(u), u.IsAdmin()})
}
