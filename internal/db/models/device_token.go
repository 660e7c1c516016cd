package models

import "time"

// DeviceToken stores a push notification token for one of a user's devices.
// The server only exchanges tokens; delivery is handled by the push provider.
type DeviceToken struct {
	// Token is the provider-issued device token.
	Token string `gorm:"primaryKey;size:255" json:"token"`
	// UserID is the owner of the device.
	UserID string `gorm:"size:36;index;not null" json:"userId"`
	// Platform is ios or android.
	Platform string `gorm:"size:10;not null" json:"platform"`
	// UpdatedAt is refreshed on every re-registration (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the DeviceToken model.
func (DeviceToken) TableName() string {
	return "device_tokens"
}
