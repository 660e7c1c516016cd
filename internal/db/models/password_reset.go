package models

import "time"

// PasswordReset is a single-use token allowing a user to set a new password.
type PasswordReset struct {
	// Token is the opaque reset token handed to the user.
	Token string `gorm:"primaryKey;size:64" json:"-"`
	// UserID is the account the token resets.
	UserID string `gorm:"size:36;index;not null" json:"userId"`
	// ExpiresAt is the moment the token stops being valid.
	ExpiresAt time.Time `json:"expiresAt"`
	// CreatedAt is the timestamp when the token was issued (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the database table name for the PasswordReset model.
func (PasswordReset) TableName() string {
	return "password_resets"
}
