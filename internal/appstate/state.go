// Package appstate derives client-facing capability flags from a user's
// account and group records. The projection is pure: it reads the already
// loaded models and never touches the database, so handlers can evaluate it
// per request without extra queries.
package appstate

import (
	"github.com/bandsync/bandsync/internal/db/models"
)

// State is the capability projection for one user.
// Every flag is derived; nothing here is stored.
type State struct {
	UserID            string   `json:"userId"`
	GroupID           *string  `json:"groupId"`
	Role              string   `json:"role"`
	IsInGroup         bool     `json:"isInGroup"`
	IsPendingApproval bool     `json:"isPendingApproval"`
	IsActiveMember    bool     `json:"isActiveMember"`
	IsAdmin           bool     `json:"isAdmin"`
	IsManager         bool     `json:"isManager"`
	CanInviteMembers  bool     `json:"canInviteMembers"`
	CanCreateEvents   bool     `json:"canCreateEvents"`
	CanCreateSetlists bool     `json:"canCreateSetlists"`
	EnabledModules    []string `json:"enabledModules"`
}

// Derive computes the capability state for a user.
// group and status describe the user's current group; pass nil and empty
// for a user who is not attached to any group.
func Derive(user *models.User, group *models.Group, status models.MembershipStatus) State {
	st := State{
		UserID:  user.ID,
		GroupID: user.GroupID,
		Role:    string(user.Role),
	}

	if user.GroupID == nil || group == nil {
		return st
	}

	st.IsInGroup = true
	st.IsPendingApproval = status == models.MembershipPending
	st.IsActiveMember = status == models.MembershipMember

	if !st.IsActiveMember {
		// pending users see the waiting room only
		return st
	}

	st.IsAdmin = user.Role == models.RoleAdmin
	st.IsManager = user.Role == models.RoleManager

	elevated := st.IsAdmin || st.IsManager
	st.CanInviteMembers = elevated || group.Settings.AllowMembersToInvite
	st.CanCreateEvents = elevated || group.Settings.AllowMembersToCreateEvents
	st.CanCreateSetlists = elevated || group.Settings.AllowMembersToCreateSetlists
	st.EnabledModules = group.Settings.EnabledModules

	return st
}

// CanAccessModule reports whether the user may open the named module.
// The admin panel additionally requires the admin role.
func (s State) CanAccessModule(m models.Module) bool {
	if !s.IsActiveMember {
		return false
	}

	if m == models.ModuleAdmin && !s.IsAdmin {
		return false
	}

	for _, name := range s.EnabledModules {
		if name == string(m) {
			return true
		}
	}

	return false
}
