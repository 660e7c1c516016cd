// Package setlist provides CRUD operations for managing setlists and their songs.
package setlist

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
	// ErrSetlistNotFound is returned when a setlist is not found.
	ErrSetlistNotFound = errors.New("setlist not found")
	// ErrSetlistNameEmpty is returned when attempting to create/update a setlist with an empty name.
	ErrSetlistNameEmpty = errors.New("setlist name cannot be empty")
	// ErrSongTitleEmpty is returned when a song entry has no title.
	ErrSongTitleEmpty = errors.New("song title cannot be empty")
	// ErrSongNotFound is returned when a song entry is not found.
	ErrSongNotFound = errors.New("song not found")
	// ErrPositionOutOfRange is returned when a reorder targets an invalid position.
	ErrPositionOutOfRange = errors.New("position out of range")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create creates a new setlist for a group.
func Create(db *gorm.DB, groupID, name, createdBy string) (*models.Setlist, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrSetlistNameEmpty
	}

	setlist := &models.Setlist{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		Name:      name,
		CreatedBy: createdBy,
	}

	result := db.Create(setlist)
	if result.Error != nil {
		return nil, result.Error
	}

	return setlist, nil
}

// Get retrieves a setlist with its songs in play order.
func Get(db *gorm.DB, groupID, id string) (*models.Setlist, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var setlist models.Setlist
	result := db.Preload("Songs", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).Where(idQueryPattern, id, groupID).First(&setlist)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSetlistNotFound
		}
		return nil, result.Error
	}

	return &setlist, nil
}

// GetAll retrieves all setlists of a group, newest first, without songs.
func GetAll(db *gorm.DB, groupID string) ([]models.Setlist, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var setlists []models.Setlist
	result := db.Where(groupQueryPattern, groupID).Order("created_at DESC").Find(&setlists)
	if result.Error != nil {
		return nil, result.Error
	}

	return setlists, nil
}

// Rename updates the name of a setlist.
func Rename(db *gorm.DB, groupID, id, name string) (*models.Setlist, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrSetlistNameEmpty
	}

	var setlist models.Setlist
	result := db.Where(idQueryPattern, id, groupID).First(&setlist)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSetlistNotFound
		}
		return nil, result.Error
	}

	setlist.Name = name
	result = db.Save(&setlist)
	if result.Error != nil {
		return nil, result.Error
	}

	return &setlist, nil
}

// Delete deletes a setlist and its songs.
func Delete(db *gorm.DB, groupID, id string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where(idQueryPattern, id, groupID).Delete(&models.Setlist{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSetlistNotFound
		}

		// cascade manually, SQLite test databases do not enforce the constraint
		return tx.Where("setlist_id = ?", id).Delete(&models.SetlistSong{}).Error
	})
}

// AddSong appends a song to the end of a setlist.
func AddSong(db *gorm.DB, groupID, setlistID, title string, durationSec, bpm int) (*models.SetlistSong, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if title == "" {
		return nil, ErrSongTitleEmpty
	}

	var song *models.SetlistSong

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := requireSetlist(tx, groupID, setlistID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.SetlistSong{}).Where("setlist_id = ?", setlistID).Count(&count).Error; err != nil {
			return err
		}

		song = &models.SetlistSong{
			SetlistID:   setlistID,
			Position:    int(count),
			Title:       title,
			DurationSec: durationSec,
			BPM:         bpm,
		}

		return tx.Create(song).Error
	})
	if err != nil {
		return nil, err
	}

	return song, nil
}

// RemoveSong deletes a song and closes the position gap it leaves.
func RemoveSong(db *gorm.DB, groupID, setlistID string, songID uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := requireSetlist(tx, groupID, setlistID); err != nil {
			return err
		}

		var song models.SetlistSong
		err := tx.First(&song, "id = ? AND setlist_id = ?", songID, setlistID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSongNotFound
			}
			return err
		}

		if err := tx.Delete(&song).Error; err != nil {
			return err
		}

		return tx.Model(&models.SetlistSong{}).
			Where("setlist_id = ? AND position > ?", setlistID, song.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
}

// MoveSong moves a song to a new position, shifting its neighbors.
func MoveSong(db *gorm.DB, groupID, setlistID string, songID uint64, newPosition int) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := requireSetlist(tx, groupID, setlistID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.SetlistSong{}).Where("setlist_id = ?", setlistID).Count(&count).Error; err != nil {
			return err
		}

		if newPosition < 0 || int64(newPosition) >= count {
			return ErrPositionOutOfRange
		}

		var song models.SetlistSong
		err := tx.First(&song, "id = ? AND setlist_id = ?", songID, setlistID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSongNotFound
			}
			return err
		}

		if song.Position == newPosition {
			return nil
		}

		if song.Position < newPosition {
			err = tx.Model(&models.SetlistSong{}).
				Where("setlist_id = ? AND position > ? AND position <= ?", setlistID, song.Position, newPosition).
				UpdateColumn("position", gorm.Expr("position - 1")).Error
		} else {
			err = tx.Model(&models.SetlistSong{}).
				Where("setlist_id = ? AND position >= ? AND position < ?", setlistID, newPosition, song.Position).
				UpdateColumn("position", gorm.Expr("position + 1")).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&song).UpdateColumn("position", newPosition).Error
	})
}

func requireSetlist(tx *gorm.DB, groupID, setlistID string) error {
	var n int64

	err := tx.Model(&models.Setlist{}).Where(idQueryPattern, setlistID, groupID).Count(&n).Error
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrSetlistNotFound
	}

	return nil
}
