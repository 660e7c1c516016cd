package models

import "time"

// MembershipStatus is the state of a user inside a group.
type MembershipStatus string

const (
	// MembershipPending marks a user who requested or was invited to join
	// but has not been approved yet.
	MembershipPending MembershipStatus = "pending"
	// MembershipMember marks an approved, active member.
	MembershipMember MembershipStatus = "member"
)

// Membership represents the relation between a user and a group.
// A user holds at most one membership row at a time; removal deletes the row
// (the REMOVED state collapses back to no relation at all). There is no
// direct transition from no-relation to member except for the group creator,
// everyone else passes through pending first.
type Membership struct {
	// GroupID is the ID of the group in this membership.
	GroupID string `gorm:"primaryKey;size:36" json:"groupId"`
	// UserID is the ID of the user in this membership.
	UserID string `gorm:"primaryKey;size:36" json:"userId"`
	// Status is pending or member.
	Status MembershipStatus `gorm:"type:varchar(10);not null" json:"status"`
	// CreatedAt is the timestamp when the relation was first created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp of the last status change (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Membership model.
// This overrides GORM's default pluralized table naming.
func (Membership) TableName() string {
	return "memberships"
}
