// Package contact provides CRUD operations for a group's shared contact book.
package contact

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/db/models"
)

const (
	idQueryPattern    = "id = ? AND group_id = ?"
	groupQueryPattern = "group_id = ?"
)

var (
	// ErrContactNotFound is returned when a contact is not found.
	ErrContactNotFound = errors.New("contact not found")
	// ErrContactNameEmpty is returned when attempting to create/update a contact with an empty name.
	ErrContactNameEmpty = errors.New("contact name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create creates a new contact for a group.
func Create(db *gorm.DB, contact *models.Contact) (*models.Contact, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if contact.Name == "" {
		return nil, ErrContactNameEmpty
	}

	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}

	result := db.Create(contact)
	if result.Error != nil {
		return nil, result.Error
	}

	return contact, nil
}

// Get retrieves a contact by ID within a group.
func Get(db *gorm.DB, groupID, id string) (*models.Contact, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var contact models.Contact
	result := db.Where(idQueryPattern, id, groupID).First(&contact)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, result.Error
	}

	return &contact, nil
}

// GetAll retrieves all contacts of a group ordered by name.
func GetAll(db *gorm.DB, groupID string) ([]models.Contact, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var contacts []models.Contact
	result := db.Where(groupQueryPattern, groupID).Order("name ASC").Find(&contacts)
	if result.Error != nil {
		return nil, result.Error
	}

	return contacts, nil
}

// Search retrieves contacts of a group whose name or role matches the query.
func Search(db *gorm.DB, groupID, query string) ([]models.Contact, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	pattern := "%" + query + "%"

	var contacts []models.Contact
	result := db.Where(groupQueryPattern, groupID).
		Where("name LIKE ? OR role LIKE ?", pattern, pattern).
		Order("name ASC").
		Find(&contacts)
	if result.Error != nil {
		return nil, result.Error
	}

	return contacts, nil
}

// Update updates an existing contact within a group.
func Update(db *gorm.DB, groupID string, contact *models.Contact) (*models.Contact, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if contact.Name == "" {
		return nil, ErrContactNameEmpty
	}

	var existing models.Contact
	result := db.Where(idQueryPattern, contact.ID, groupID).First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, result.Error
	}

	existing.Name = contact.Name
	existing.Email = contact.Email
	existing.Phone = contact.Phone
	existing.Role = contact.Role

	result = db.Save(&existing)
	if result.Error != nil {
		return nil, result.Error
	}

	return &existing, nil
}

// Delete deletes a contact by ID within a group.
func Delete(db *gorm.DB, groupID, id string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where(idQueryPattern, id, groupID).Delete(&models.Contact{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}

	return nil
}
