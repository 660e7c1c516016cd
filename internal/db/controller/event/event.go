// Package event provides CRUD operations for managing calendar events.
package event

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/db/models"
)

const (
	idQueryPattern    = "id = ? AND group_id = ?"
	groupQueryPattern = "group_id = ?"
)

var (
	// ErrEventNotFound is returned when an event is not found.
	ErrEventNotFound = errors.New("event not found")
	// ErrEventTitleEmpty is returned when attempting to create/update an event with an empty title.
	ErrEventTitleEmpty = errors.New("event title cannot be empty")
	// ErrEventKindInvalid is returned when the event kind is not one of the known kinds.
	ErrEventKindInvalid = errors.New("unknown event kind")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

func validKind(kind models.EventKind) bool {
	switch kind {
	case models.EventConcert, models.EventRehearsal, models.EventMeeting, models.EventPersonal:
		return true
	}

	return false
}

// Create creates a new event for a group.
func Create(db *gorm.DB, event *models.Event) (*models.Event, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if event.Title == "" {
		return nil, ErrEventTitleEmpty
	}
	if !validKind(event.Kind) {
		return nil, ErrEventKindInvalid
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	result := db.Create(event)
	if result.Error != nil {
		return nil, result.Error
	}

	return event, nil
}

// Get retrieves an event by ID within a group.
func Get(db *gorm.DB, groupID, id string) (*models.Event, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var event models.Event
	result := db.Where(idQueryPattern, id, groupID).First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, result.Error
	}

	return &event, nil
}

// GetAll retrieves all events of a group ordered by start time.
func GetAll(db *gorm.DB, groupID string) ([]models.Event, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var events []models.Event
	result := db.Where(groupQueryPattern, groupID).Order("starts_at ASC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

// GetRange retrieves events of a group starting inside [from, to).
func GetRange(db *gorm.DB, groupID string, from, to time.Time) ([]models.Event, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var events []models.Event
	result := db.Where(groupQueryPattern, groupID).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Order("starts_at ASC").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

// Update updates an existing event within a group.
func Update(db *gorm.DB, groupID string, event *models.Event) (*models.Event, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if event.Title == "" {
		return nil, ErrEventTitleEmpty
	}
	if !validKind(event.Kind) {
		return nil, ErrEventKindInvalid
	}

	var existing models.Event
	result := db.Where(idQueryPattern, event.ID, groupID).First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, result.Error
	}

	existing.Title = event.Title
	existing.StartsAt = event.StartsAt
	existing.Venue = event.Venue
	existing.Kind = event.Kind
	existing.Status = event.Status
	existing.Notes = event.Notes

	result = db.Save(&existing)
	if result.Error != nil {
		return nil, result.Error
	}

	return &existing, nil
}

// Delete deletes an event by ID within a group.
func Delete(db *gorm.DB, groupID, id string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(idQueryPattern, id, groupID).Delete(&models.Event{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}
