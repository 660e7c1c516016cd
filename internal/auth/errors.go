package auth

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")

	// ErrEmailEmpty is returned when registration is attempted without an email.
	ErrEmailEmpty = errors.New("email cannot be empty")

	// ErrPasswordTooShort is returned when a password is below the minimum length.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")

	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials is returned on login with a wrong email or password.
	// The two cases are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountInactive is returned when a deactivated account tries to log in.
	ErrAccountInactive = errors.New("account is deactivated")

	// ErrInvalidToken is returned when an access token fails validation.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrResetTokenInvalid is returned when a password reset token is unknown,
	// already used or expired.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")

	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")
)
