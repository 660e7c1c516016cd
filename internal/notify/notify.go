// Package notify maintains the device token registry used for push
// notifications. The server only stores and hands out tokens; talking to the
// push provider happens outside this process.
package notify

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bandsync/bandsync/internal/db/models"
)

var (
	// ErrTokenEmpty is returned when a registration carries no token.
	ErrTokenEmpty = errors.New("device token cannot be empty")
	// ErrPlatformInvalid is returned when the platform is not ios or android.
	ErrPlatformInvalid = errors.New("platform must be ios or android")
	// ErrTokenNotFound is returned when an unregistration misses.
	ErrTokenNotFound = errors.New("device token not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Register stores a device token for a user, or refreshes ownership when the
// token is already known. Re-registering after an app reinstall moves the
// token to the new account.
func Register(db *gorm.DB, userID, token, platform string) error {
	if db == nil {
		return ErrDBNil
	}
	if token == "" {
		return ErrTokenEmpty
	}
	if platform != "ios" && platform != "android" {
		return ErrPlatformInvalid
	}

	record := models.DeviceToken{
		Token:    token,
		UserID:   userID,
		Platform: platform,
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(&record).Error
}

// Unregister removes a device token, typically on logout.
func Unregister(db *gorm.DB, userID, token string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Where("token = ? AND user_id = ?", token, userID).Delete(&models.DeviceToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}

	return nil
}

// TokensFor lists the registered device tokens of a user.
func TokensFor(db *gorm.DB, userID string) ([]models.DeviceToken, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var tokens []models.DeviceToken
	result := db.Where("user_id = ?", userID).Find(&tokens)
	if result.Error != nil {
		return nil, result.Error
	}

	return tokens, nil
}

// TokensForGroup lists the device tokens of every active member of a group.
// Pending users are excluded; they should not receive group notifications.
func TokensForGroup(db *gorm.DB, groupID string) ([]models.DeviceToken, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var tokens []models.DeviceToken
	result := db.
		Joins("JOIN memberships ON memberships.user_id = device_tokens.user_id").
		Where("memberships.group_id = ? AND memberships.status = ?", groupID, models.MembershipMember).
		Find(&tokens)
	if result.Error != nil {
		return nil, result.Error
	}

	return tokens, nil
}
