package membership

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/subscribe"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.User{}, &models.Group{}, &models.Membership{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// seedUser inserts a test user and returns its ID.
func seedUser(t *testing.T, db *gorm.DB, name string) string {
	t.Helper()

	user := models.User{
		ID:     uuid.NewString(),
		Active: true,
		Email:  name + "@example.com",
		Name:   name,
		Role:   models.RoleMember,
	}
	require.NoError(t, db.Create(&user).Error, "failed to seed user")

	return user.ID
}

func fetchUser(t *testing.T, db *gorm.DB, id string) models.User {
	t.Helper()

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", id).Error)

	return user
}

func membershipStatus(t *testing.T, db *gorm.DB, groupID, userID string) (models.MembershipStatus, bool) {
	t.Helper()

	var m models.Membership

	err := db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
	if err != nil {
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
		return "", false
	}

	return m.Status, true
}

// requireAdminInvariant asserts that a group with members has at least one admin.
func requireAdminInvariant(t *testing.T, db *gorm.DB, groupID string) {
	t.Helper()

	var members, admins int64

	require.NoError(t, db.Model(&models.Membership{}).
		Where("group_id = ? AND status = ?", groupID, models.MembershipMember).
		Count(&members).Error)

	require.NoError(t, db.Table("users").
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.group_id = ? AND memberships.status = ?", groupID, models.MembershipMember).
		Where("users.role = ?", models.RoleAdmin).
		Count(&admins).Error)

	if members > 0 {
		assert.Positive(t, admins, "non-empty group must retain an admin")
	}
}

func TestCreateGroup(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.CreateGroup(ctx, "", owner)
		require.ErrorIs(t, err, ErrGroupNameEmpty)
	})

	t.Run("unknown owner", func(t *testing.T) {
		_, err := svc.CreateGroup(ctx, "The Unknowns", uuid.NewString())
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
		require.NoError(t, err)
		require.NotNil(t, group)

		fetched, err := svc.Group(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Midnight Echo", fetched.Name)
		assert.Len(t, fetched.Code, 6)
		assert.ElementsMatch(t, models.AllModules(), fetched.Settings.EnabledModules)

		snap, err := svc.Snapshot(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, snap.Members, 1)
		assert.Equal(t, owner, snap.Members[0].ID)
		assert.Equal(t, models.RoleAdmin, snap.Members[0].Role)
		assert.Empty(t, snap.Pending)

		requireAdminInvariant(t, db, group.ID)
	})

	t.Run("owner already in a group", func(t *testing.T) {
		_, err := svc.CreateGroup(ctx, "Second Band", owner)
		require.ErrorIs(t, err, ErrAlreadyInGroup)
	})
}

func TestJoinByCode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	joiner := seedUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)

	t.Run("unknown code performs no writes", func(t *testing.T) {
		_, err := svc.JoinByCode(ctx, "ZZZZZZ", joiner)
		require.ErrorIs(t, err, ErrCodeNotFound)

		user := fetchUser(t, db, joiner)
		assert.Nil(t, user.GroupID)

		_, exists := membershipStatus(t, db, group.ID, joiner)
		assert.False(t, exists)
	})

	t.Run("join lands in pending", func(t *testing.T) {
		joined, err := svc.JoinByCode(ctx, group.Code, joiner)
		require.NoError(t, err)
		assert.Equal(t, group.ID, joined.ID)

		status, exists := membershipStatus(t, db, group.ID, joiner)
		require.True(t, exists)
		assert.Equal(t, models.MembershipPending, status)

		user := fetchUser(t, db, joiner)
		require.NotNil(t, user.GroupID)
		assert.Equal(t, group.ID, *user.GroupID)
		// pending users are not members yet
		snap, err := svc.Snapshot(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, snap.Pending, 1)
		assert.Equal(t, joiner, snap.Pending[0].ID)
		require.Len(t, snap.Members, 1)
	})

	t.Run("rejoining the same group is a no-op", func(t *testing.T) {
		_, err := svc.JoinByCode(ctx, group.Code, joiner)
		require.NoError(t, err)

		var n int64
		require.NoError(t, db.Model(&models.Membership{}).
			Where("group_id = ? AND user_id = ?", group.ID, joiner).
			Count(&n).Error)
		assert.EqualValues(t, 1, n)
	})

	t.Run("joining another group conflicts", func(t *testing.T) {
		other := seedUser(t, db, "carol")
		otherGroup, err := svc.CreateGroup(ctx, "Other Band", other)
		require.NoError(t, err)

		_, err = svc.JoinByCode(ctx, otherGroup.Code, joiner)
		require.ErrorIs(t, err, ErrAlreadyInGroup)
	})
}

func TestApprove(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	joiner := seedUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)
	_, err = svc.JoinByCode(ctx, group.Code, joiner)
	require.NoError(t, err)

	t.Run("moves pending to member", func(t *testing.T) {
		require.NoError(t, svc.Approve(ctx, group.ID, joiner))

		status, exists := membershipStatus(t, db, group.ID, joiner)
		require.True(t, exists)
		assert.Equal(t, models.MembershipMember, status)

		requireAdminInvariant(t, db, group.ID)
	})

	t.Run("approve is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Approve(ctx, group.ID, joiner))

		var n int64
		require.NoError(t, db.Model(&models.Membership{}).
			Where("group_id = ? AND user_id = ?", group.ID, joiner).
			Count(&n).Error)
		assert.EqualValues(t, 1, n, "approve must never duplicate membership")
	})

	t.Run("no pending request", func(t *testing.T) {
		err := svc.Approve(ctx, group.ID, uuid.NewString())
		require.ErrorIs(t, err, ErrNotPending)
	})
}

func TestReject(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	joiner := seedUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)
	_, err = svc.JoinByCode(ctx, group.Code, joiner)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, group.ID, joiner))

	_, exists := membershipStatus(t, db, group.ID, joiner)
	assert.False(t, exists)

	user := fetchUser(t, db, joiner)
	assert.Nil(t, user.GroupID, "reject must clear the group pointer")
	assert.Equal(t, models.RoleMember, user.Role, "reject must reset the role")

	// second reject has nothing to act on
	require.ErrorIs(t, svc.Reject(ctx, group.ID, joiner), ErrNotPending)
}

func TestApproveRejectExclusive(t *testing.T) {
	// Approve and reject race on the same pending user; transactions
	// serialize them, so whichever lands second must fail and the final
	// state has the user in exactly one list or none, never both.
	ctx := context.Background()

	t.Run("approve wins", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewService(db, nil)

		owner := seedUser(t, db, "alice")
		joiner := seedUser(t, db, "carl")
		group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
		require.NoError(t, err)
		_, err = svc.JoinByCode(ctx, group.Code, joiner)
		require.NoError(t, err)

		require.NoError(t, svc.Approve(ctx, group.ID, joiner))
		require.ErrorIs(t, svc.Reject(ctx, group.ID, joiner), ErrNotPending)

		status, exists := membershipStatus(t, db, group.ID, joiner)
		require.True(t, exists)
		assert.Equal(t, models.MembershipMember, status)
	})

	t.Run("reject wins", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewService(db, nil)

		owner := seedUser(t, db, "alice")
		joiner := seedUser(t, db, "carl")
		group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
		require.NoError(t, err)
		_, err = svc.JoinByCode(ctx, group.Code, joiner)
		require.NoError(t, err)

		require.NoError(t, svc.Reject(ctx, group.ID, joiner))
		require.ErrorIs(t, svc.Approve(ctx, group.ID, joiner), ErrNotPending)

		_, exists := membershipStatus(t, db, group.ID, joiner)
		assert.False(t, exists)
	})
}

func TestRemove(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	member := seedUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)
	_, err = svc.JoinByCode(ctx, group.Code, member)
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, group.ID, member))

	t.Run("sole admin cannot be removed", func(t *testing.T) {
		err := svc.Remove(ctx, group.ID, owner)
		require.ErrorIs(t, err, ErrLastAdmin)

		// state unchanged
		status, exists := membershipStatus(t, db, group.ID, owner)
		require.True(t, exists)
		assert.Equal(t, models.MembershipMember, status)
		assert.Equal(t, models.RoleAdmin, fetchUser(t, db, owner).Role)
	})

	t.Run("plain member removal resets the profile", func(t *testing.T) {
		require.NoError(t, svc.Remove(ctx, group.ID, member))

		_, exists := membershipStatus(t, db, group.ID, member)
		assert.False(t, exists)

		user := fetchUser(t, db, member)
		assert.Nil(t, user.GroupID)
		assert.Equal(t, models.RoleMember, user.Role)

		requireAdminInvariant(t, db, group.ID)
	})

	t.Run("removing a non-member fails", func(t *testing.T) {
		require.ErrorIs(t, svc.Remove(ctx, group.ID, member), ErrNotMember)
	})

	t.Run("admin leaves after promoting a successor", func(t *testing.T) {
		successor := seedUser(t, db, "dave")
		_, err := svc.JoinByCode(ctx, group.Code, successor)
		require.NoError(t, err)
		require.NoError(t, svc.Approve(ctx, group.ID, successor))

		require.NoError(t, svc.ChangeRole(ctx, group.ID, owner, successor, models.RoleAdmin))
		require.NoError(t, svc.Remove(ctx, group.ID, owner))

		requireAdminInvariant(t, db, group.ID)
		assert.Equal(t, models.RoleMember, fetchUser(t, db, owner).Role)
	})
}

func TestChangeRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	member := seedUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)
	_, err = svc.JoinByCode(ctx, group.Code, member)
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, group.ID, member))

	testCases := []struct {
		name          string
		actorID       string
		userID        string
		newRole       models.Role
		expectedError error
	}{
		{
			name:          "unknown role",
			actorID:       owner,
			userID:        member,
			newRole:       models.Role("Roadie"),
			expectedError: ErrInvalidRole,
		},
		{
			name:          "target not a member",
			actorID:       owner,
			userID:        uuid.NewString(),
			newRole:       models.RoleManager,
			expectedError: ErrNotMember,
		},
		{
			name:          "self demotion of an admin",
			actorID:       owner,
			userID:        owner,
			newRole:       models.RoleMember,
			expectedError: ErrSelfDemotion,
		},
		{
			name:    "promote member to manager",
			actorID: owner,
			userID:  member,
			newRole: models.RoleManager,
		},
		{
			name:    "promote member to admin",
			actorID: owner,
			userID:  member,
			newRole: models.RoleAdmin,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ChangeRole(ctx, group.ID, tc.actorID, tc.userID, tc.newRole)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.newRole, fetchUser(t, db, tc.userID).Role)
			}

			requireAdminInvariant(t, db, group.ID)
		})
	}

	t.Run("demoting the last admin fails", func(t *testing.T) {
		// member is admin now; demote them back first
		require.NoError(t, svc.ChangeRole(ctx, group.ID, owner, member, models.RoleMusician))

		err := svc.ChangeRole(ctx, group.ID, member, owner, models.RoleMember)
		require.ErrorIs(t, err, ErrLastAdmin)

		requireAdminInvariant(t, db, group.ID)
	})
}

func TestLeave(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	pending := seedUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)
	_, err = svc.JoinByCode(ctx, group.Code, pending)
	require.NoError(t, err)

	t.Run("pending user withdraws the request", func(t *testing.T) {
		require.NoError(t, svc.Leave(ctx, group.ID, pending))

		_, exists := membershipStatus(t, db, group.ID, pending)
		assert.False(t, exists)
		assert.Nil(t, fetchUser(t, db, pending).GroupID)
	})

	t.Run("sole admin cannot leave", func(t *testing.T) {
		require.ErrorIs(t, svc.Leave(ctx, group.ID, owner), ErrLastAdmin)
	})

	t.Run("user without any relation", func(t *testing.T) {
		require.ErrorIs(t, svc.Leave(ctx, group.ID, uuid.NewString()), ErrNotMember)
	})
}

func TestRegenerateInviteCode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	joiner := seedUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)

	oldCode := group.Code

	newCode, err := svc.RegenerateInviteCode(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, newCode, 6)
	require.NotEqual(t, oldCode, newCode)

	// the old code is dead immediately
	_, err = svc.JoinByCode(ctx, oldCode, joiner)
	require.ErrorIs(t, err, ErrCodeNotFound)

	// the new code works
	_, err = svc.JoinByCode(ctx, newCode, joiner)
	require.NoError(t, err)

	t.Run("unknown group", func(t *testing.T) {
		_, err := svc.RegenerateInviteCode(ctx, uuid.NewString())
		require.ErrorIs(t, err, ErrGroupNotFound)
	})
}

func TestInviteByEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	invited := seedUser(t, db, "bob")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.InviteByEmail(ctx, group.ID, owner, "nobody@example.com")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("admin invites by email", func(t *testing.T) {
		user, err := svc.InviteByEmail(ctx, group.ID, owner, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, invited, user.ID)

		status, exists := membershipStatus(t, db, group.ID, invited)
		require.True(t, exists)
		assert.Equal(t, models.MembershipPending, status)
	})

	t.Run("outsider cannot invite", func(t *testing.T) {
		outsider := seedUser(t, db, "mallory")
		_, err := svc.InviteByEmail(ctx, group.ID, outsider, "bob@example.com")
		require.ErrorIs(t, err, ErrNotAllowed)
	})
}

func TestUpdateGroupName(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)

	t.Run("empty name", func(t *testing.T) {
		require.ErrorIs(t, svc.UpdateGroupName(ctx, group.ID, ""), ErrGroupNameEmpty)
	})

	t.Run("unknown group", func(t *testing.T) {
		require.ErrorIs(t, svc.UpdateGroupName(ctx, uuid.NewString(), "Ghost Band"), ErrGroupNotFound)
	})

	t.Run("rename", func(t *testing.T) {
		require.NoError(t, svc.UpdateGroupName(ctx, group.ID, "Midnight Echoes"))

		fetched, err := svc.Group(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Midnight Echoes", fetched.Name)
	})

	t.Run("renaming to the current name is a no-op, not a missing group", func(t *testing.T) {
		require.NoError(t, svc.UpdateGroupName(ctx, group.ID, "Midnight Echoes"))
	})
}

func TestUpdateGroupSettings(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)

	t.Run("unknown group", func(t *testing.T) {
		err := svc.UpdateGroupSettings(ctx, uuid.NewString(), models.DefaultGroupSettings())
		require.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("settings are replaced wholesale", func(t *testing.T) {
		err := svc.UpdateGroupSettings(ctx, group.ID, models.GroupSettings{
			AllowMembersToInvite: false,
			AllowGuestAccess:     true,
			EnabledModules:       []string{string(models.ModuleChats)},
		})
		require.NoError(t, err)

		fetched, err := svc.Group(ctx, group.ID)
		require.NoError(t, err)
		assert.False(t, fetched.Settings.AllowMembersToInvite)
		assert.True(t, fetched.Settings.AllowGuestAccess)
		assert.False(t, fetched.Settings.EnableNotifications)
		assert.Equal(t, []string{string(models.ModuleChats)}, fetched.Settings.EnabledModules)
	})

	t.Run("an empty module list switches every module off", func(t *testing.T) {
		err := svc.UpdateGroupSettings(ctx, group.ID, models.GroupSettings{})
		require.NoError(t, err)

		fetched, err := svc.Group(ctx, group.ID)
		require.NoError(t, err)
		assert.Empty(t, fetched.Settings.EnabledModules)
		assert.False(t, fetched.Settings.IsModuleEnabled(models.ModuleChats))
	})
}

func TestSnapshotOmitsPasswordHashes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", owner).
		Update("password", "$argon2id$v=19$m=65536,t=1,p=2$secret").Error)

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, group.ID)
	require.NoError(t, err)

	body, err := json.Marshal(snap)
	require.NoError(t, err)

	// the snapshot is what API responses and the live hub emit, so the
	// password hash must not survive serialization
	assert.NotContains(t, string(body), "argon2id")
	assert.NotContains(t, string(body), "Password")
	assert.Contains(t, string(body), `"members"`)
}

func TestSnapshotPublishing(t *testing.T) {
	db := setupTestDB(t)
	hub := subscribe.NewHub()
	svc := NewService(db, hub)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")

	group, err := svc.CreateGroup(ctx, "Midnight Echo", owner)
	require.NoError(t, err)

	sub := hub.Subscribe(TopicGroup(group.ID))
	defer sub.Cancel()

	require.NoError(t, svc.UpdateGroupName(ctx, group.ID, "Midnight Echoes"))

	snap := <-sub.C
	payload, ok := snap.Data.(*GroupSnapshot)
	require.True(t, ok)
	assert.Equal(t, "Midnight Echoes", payload.Group.Name)
	assert.Positive(t, snap.Version)
}
