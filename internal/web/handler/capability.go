package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/appstate"
	"github.com/bandsync/bandsync/internal/db/models"
)

// State loads the group context of a user and derives their capability state.
func State(db *gorm.DB, user *models.User) appstate.State {
	var (
		group  *models.Group
		status models.MembershipStatus
	)

	if user.GroupID != nil {
		var g models.Group
		if err := db.First(&g, "id = ?", *user.GroupID).Error; err == nil {
			group = &g
		}

		var m models.Membership
		err := db.Where("group_id = ? AND user_id = ?", *user.GroupID, user.ID).First(&m).Error
		if err == nil {
			status = m.Status
		}
	}

	return appstate.Derive(user, group, status)
}

// RequireModule checks the user is an active member with access to the module.
// Writes the failure response and returns it when access is denied.
func RequireModule(c *fiber.Ctx, db *gorm.DB, user *models.User, module models.Module) (appstate.State, error) {
	st := State(db, user)

	if !st.IsActiveMember {
		return st, Fail(c, fiber.StatusForbidden, "active group membership required")
	}

	if !st.CanAccessModule(module) {
		return st, Fail(c, fiber.StatusForbidden, "module is not enabled for this group")
	}

	return st, nil
}
