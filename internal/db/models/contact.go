package models

import "time"

// Contact is an entry in a group's shared contact book:
// promoters, venues, session musicians and the like.
type Contact struct {
	// ID is the unique identifier for the contact (UUID string).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// GroupID scopes the contact to a group.
	GroupID string `gorm:"size:36;index;not null" json:"groupId"`
	// Name is the contact's display name.
	Name string `gorm:"size:100;not null" json:"name"`
	// Email is the contact's email address.
	Email string `gorm:"size:255" json:"email"`
	// Phone is the contact's phone number.
	Phone string `gorm:"size:50" json:"phone"`
	// Role tags the contact: "Musician", "Organizer", "Venue", etc.
	Role string `gorm:"size:50" json:"role"`
	// CreatedAt is the timestamp when the contact was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the contact was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Contact model.
func (Contact) TableName() string {
	return "contacts"
}
