package models

import "time"

// Module names the feature modules a group can enable for its members.
type Module string

const (
	// ModuleCalendar enables the shared event calendar.
	ModuleCalendar Module = "calendar"
	// ModuleSetlists enables setlist management.
	ModuleSetlists Module = "setlists"
	// ModuleTasks enables the shared task list.
	ModuleTasks Module = "tasks"
	// ModuleChats enables group and direct chats.
	ModuleChats Module = "chats"
	// ModuleFinances enables the income/expense register.
	ModuleFinances Module = "finances"
	// ModuleMerchandise enables merchandise tracking.
	ModuleMerchandise Module = "merchandise"
	// ModuleContacts enables the shared contact book.
	ModuleContacts Module = "contacts"
	// ModuleAdmin enables the admin panel.
	ModuleAdmin Module = "admin"
)

// AllModules lists every module in presentation order.
// New groups start with all of them enabled.
func AllModules() []string {
	return []string{
		string(ModuleCalendar), string(ModuleSetlists), string(ModuleTasks),
		string(ModuleChats), string(ModuleFinances), string(ModuleMerchandise),
		string(ModuleContacts), string(ModuleAdmin),
	}
}

// GroupSettings holds the per-group permission flags and the enabled-module list.
// It is embedded into Group so every settings change rides the group row.
type GroupSettings struct {
	// AllowMembersToInvite lets plain members send invites; admins and managers always can.
	AllowMembersToInvite bool `gorm:"default:true" json:"allowMembersToInvite"`
	// AllowMembersToCreateEvents lets plain members create calendar events.
	AllowMembersToCreateEvents bool `gorm:"default:true" json:"allowMembersToCreateEvents"`
	// AllowMembersToCreateSetlists lets plain members create setlists.
	AllowMembersToCreateSetlists bool `gorm:"default:true" json:"allowMembersToCreateSetlists"`
	// AllowGuestAccess lets non-members view public group data.
	AllowGuestAccess bool `gorm:"default:false" json:"allowGuestAccess"`
	// EnableNotifications toggles push notifications for the whole group.
	EnableNotifications bool `gorm:"default:true" json:"enableNotifications"`
	// EnabledModules is the list of module names switched on for this group.
	EnabledModules []string `gorm:"serializer:json" json:"enabledModules"`
}

// IsModuleEnabled reports whether the named module is switched on.
func (s GroupSettings) IsModuleEnabled(m Module) bool {
	for _, name := range s.EnabledModules {
		if name == string(m) {
			return true
		}
	}

	return false
}

// Group represents a band or organization unit.
// The authoritative member and pending lists live in the memberships table;
// the invite code maps a short human-shareable token to this group.
type Group struct {
	// ID is the unique identifier for the group (UUID string).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Name is the display name of the group.
	Name string `gorm:"size:100;not null" json:"name"`
	// Code is the 6 character invite code. Regenerating it invalidates the old
	// one immediately, there is no grace period.
	Code string `gorm:"uniqueIndex;size:12;not null" json:"code,omitempty"`
	// Settings holds permission flags and the enabled-module list.
	Settings GroupSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Group model.
// This overrides GORM's default pluralized table naming.
func (Group) TableName() string {
	return "groups"
}

// DefaultGroupSettings returns the settings a freshly created group starts with.
func DefaultGroupSettings() GroupSettings {
	return GroupSettings{
		AllowMembersToInvite:         true,
		AllowMembersToCreateEvents:   true,
		AllowMembersToCreateSetlists: true,
		AllowGuestAccess:             false,
		EnableNotifications:          true,
		EnabledModules:               AllModules(),
	}
}
