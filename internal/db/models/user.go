package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// Role represents the position a user holds inside their group.
// The raw values match what the mobile clients display and store.
type Role string

const (
	// RoleAdmin can manage members, settings and every module of the group.
	RoleAdmin Role = "Admin"
	// RoleManager organizes events and setlists but can not manage members.
	RoleManager Role = "Manager"
	// RoleMusician is a playing member without management rights.
	RoleMusician Role = "Musician"
	// RoleMember is the default role assigned at sign-up and after leaving a group.
	RoleMember Role = "Member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMusician, RoleMember:
		return true
	}

	return false
}

// User represents a user account in the system.
// A user belongs to at most one group at a time; GroupID is the denormalized
// pointer to that group and must stay consistent with the memberships table.
type User struct {
	// ID is the unique identifier for the user (UUID string).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Active indicates whether the user account is active and can log in.
	// Accounts are never hard-deleted, only deactivated.
	Active bool `json:"active"`
	// Email is the unique address used for login.
	Email string `gorm:"unique;size:255;not null" json:"email"`
	// Password is the Argon2id hashed password. It never leaves the server:
	// the field is excluded from every JSON serialization.
	Password string `gorm:"size:255" json:"-"`
	// Name is the user's display name.
	Name string `gorm:"size:100" json:"name"`
	// Phone is the user's phone number.
	Phone string `gorm:"size:50" json:"phone"`
	// GroupID references the group the user belongs to or awaits approval for.
	// Nil when the user is not attached to any group.
	GroupID *string `gorm:"size:36;index" json:"groupId"`
	// Role is the user's role inside their group.
	Role Role `gorm:"type:varchar(20);not null;default:'Member'" json:"role"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating user passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
