package models

import "time"

// EventKind classifies calendar entries.
type EventKind string

const (
	// EventConcert is a public show.
	EventConcert EventKind = "concert"
	// EventRehearsal is a band rehearsal.
	EventRehearsal EventKind = "rehearsal"
	// EventMeeting is an organizational meeting.
	EventMeeting EventKind = "meeting"
	// EventPersonal is a personal blocker visible to the group.
	EventPersonal EventKind = "personal"
)

// Event is a calendar entry scoped to a group.
type Event struct {
	// ID is the unique identifier for the event (UUID string).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// GroupID scopes the event to a group.
	GroupID string `gorm:"size:36;index;not null" json:"groupId"`
	// Title is the event headline.
	Title string `gorm:"size:200;not null" json:"title"`
	// StartsAt is when the event begins.
	StartsAt time.Time `gorm:"index" json:"startsAt"`
	// Venue is the free-form location description.
	Venue string `gorm:"size:200" json:"venue"`
	// Kind is concert, rehearsal, meeting or personal.
	Kind EventKind `gorm:"type:varchar(20);not null" json:"kind"`
	// Status is a free-form scheduling state (e.g. confirmed, tentative).
	Status string `gorm:"size:50" json:"status"`
	// Notes carries additional details.
	Notes string `gorm:"size:2000" json:"notes"`
	// CreatedBy is the user who created the event.
	CreatedBy string `gorm:"size:36" json:"createdBy"`
	// CreatedAt is the timestamp when the event was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the event was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Event model.
func (Event) TableName() string {
	return "events"
}
