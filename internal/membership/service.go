// Package membership owns groups and the user-group relation: invite codes,
// join requests, approvals, removals and role changes. Every mutation moves
// the memberships table and the denormalized users.group_id pointer inside a
// single transaction, and each successful mutation publishes a fresh group
// snapshot to the live hub.
package membership

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/subscribe"
	"github.com/bandsync/bandsync/internal/uniuri"
)

const (
	// codeLen is the invite code length shown to users.
	codeLen = 6

	// codeAttempts bounds the retries when a generated code collides.
	codeAttempts = 5
)

// codeChars is the invite code alphabet. Easily confused characters
// (0/O, 1/I) are left out because codes are read aloud and typed by hand.
var codeChars = []byte("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")

// TopicGroup returns the hub topic carrying snapshots of the given group.
func TopicGroup(groupID string) string {
	return "group:" + groupID
}

// GroupSnapshot is the consistent projection of a group published after
// every membership mutation: the group row plus the resolved member and
// pending profiles, read in one transaction.
type GroupSnapshot struct {
	Group   models.Group  `json:"group"`
	Members []models.User `json:"members"`
	Pending []models.User `json:"pending"`
}

// Service is the membership engine. It is constructed once at process start
// and handed to consumers by reference; it holds no per-request state.
type Service struct {
	db  *gorm.DB
	hub *subscribe.Hub
}

// NewService creates a membership service. hub may be nil, in which case no
// live snapshots are published.
func NewService(db *gorm.DB, hub *subscribe.Hub) *Service {
	return &Service{db: db, hub: hub}
}

// CreateGroup creates a group with the owner seeded directly as its sole
// member and admin. The owner must not belong to another group yet.
func (s *Service) CreateGroup(ctx context.Context, name, ownerID string) (*models.Group, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	if name == "" {
		return nil, ErrGroupNameEmpty
	}

	var group models.Group

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := lockUser(tx, ownerID)
		if err != nil {
			return err
		}

		if owner.GroupID != nil {
			return ErrAlreadyInGroup
		}

		code, err := freeInviteCode(tx)
		if err != nil {
			return err
		}

		group = models.Group{
			ID:       uuid.NewString(),
			Name:     name,
			Code:     code,
			Settings: models.DefaultGroupSettings(),
		}

		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.Membership{
			GroupID: group.ID,
			UserID:  ownerID,
			Status:  models.MembershipMember,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", ownerID).
			Updates(map[string]interface{}{
				"group_id": group.ID,
				"role":     models.RoleAdmin,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, group.ID)
	log.Info().Str("group", group.ID).Str("owner", ownerID).Msg("group created")

	return &group, nil
}

// JoinByCode files a join request for the group matching the invite code.
// The user lands in the pending list and is not yet a member. Joining the
// same group twice is a no-op; belonging to a different group is a conflict.
func (s *Service) JoinByCode(ctx context.Context, code, userID string) (*models.Group, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var group models.Group

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).First(&group).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return err
		}

		return attachPending(tx, group.ID, userID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, group.ID)

	return &group, nil
}

// InviteByEmail files a pending membership for the user with the given email.
// The acting user must be allowed to invite (admin, manager, or a plain
// member when the group settings permit it).
func (s *Service) InviteByEmail(ctx context.Context, groupID, actorID, email string) (*models.User, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var invited models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, groupID)
		if err != nil {
			return err
		}

		actor, err := lockUser(tx, actorID)
		if err != nil {
			return err
		}

		if !canInvite(actor, group) {
			return ErrNotAllowed
		}

		if err := tx.Where("email = ?", email).First(&invited).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		return attachPending(tx, groupID, invited.ID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, groupID)

	return &invited, nil
}

// Approve moves a pending user into the member list. Approving a user who is
// already a member is a no-op, never a duplicate; approving a user without a
// pending request fails with ErrNotPending.
func (s *Service) Approve(ctx context.Context, groupID, userID string) error {
	if s.db == nil {
		return ErrDBNil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Membership

		err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotPending
		}

		if err != nil {
			return err
		}

		if m.Status == models.MembershipMember {
			return nil // already approved, idempotent
		}

		return tx.Model(&models.Membership{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Update("status", models.MembershipMember).Error
	})
	if err != nil {
		return err
	}

	s.publish(ctx, groupID)

	return nil
}

// Reject drops a pending request: the membership row is deleted, the user's
// group pointer is cleared and their role reset to member.
func (s *Service) Reject(ctx context.Context, groupID, userID string) error {
	if s.db == nil {
		return ErrDBNil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("group_id = ? AND user_id = ? AND status = ?",
			groupID, userID, models.MembershipPending).
			Delete(&models.Membership{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return ErrNotPending
		}

		return detachUser(tx, userID)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, groupID)

	return nil
}

// Remove takes an active member out of the group. Removing the only admin of
// a non-empty group fails with ErrLastAdmin and leaves every row untouched.
// The removed user's role is reset to member and their group pointer cleared.
func (s *Service) Remove(ctx context.Context, groupID, userID string) error {
	if s.db == nil {
		return ErrDBNil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Membership

		err := tx.Where("group_id = ? AND user_id = ? AND status = ?",
			groupID, userID, models.MembershipMember).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}

		if err != nil {
			return err
		}

		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}

		if user.Role == models.RoleAdmin {
			others, err := otherAdminCount(tx, groupID, userID)
			if err != nil {
				return err
			}

			if others == 0 {
				return ErrLastAdmin
			}
		}

		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		return detachUser(tx, userID)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, groupID)

	return nil
}

// Leave lets a user exit the group on their own: pending users withdraw
// their request, members go through the same invariant checks as Remove.
func (s *Service) Leave(ctx context.Context, groupID, userID string) error {
	if s.db == nil {
		return ErrDBNil
	}

	var m models.Membership

	err := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotMember
	}

	if err != nil {
		return err
	}

	if m.Status == models.MembershipPending {
		return s.Reject(ctx, groupID, userID)
	}

	return s.Remove(ctx, groupID, userID)
}

// ChangeRole updates a member's role. Two guards apply: the group may never
// be left without an admin, and admins may not change their own role away
// from admin at all (someone else has to demote them).
func (s *Service) ChangeRole(ctx context.Context, groupID, actorID, userID string, newRole models.Role) error {
	if s.db == nil {
		return ErrDBNil
	}

	if !newRole.Valid() {
		return ErrInvalidRole
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Membership

		err := tx.Where("group_id = ? AND user_id = ? AND status = ?",
			groupID, userID, models.MembershipMember).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}

		if err != nil {
			return err
		}

		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}

		if user.Role == models.RoleAdmin && newRole != models.RoleAdmin {
			if actorID == userID {
				return ErrSelfDemotion
			}

			others, err := otherAdminCount(tx, groupID, userID)
			if err != nil {
				return err
			}

			if others == 0 {
				return ErrLastAdmin
			}
		}

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("role", newRole).Error
	})
	if err != nil {
		return err
	}

	s.publish(ctx, groupID)

	return nil
}

// RegenerateInviteCode replaces the group's invite code. The old code stops
// matching the moment the transaction commits; there is no grace period.
func (s *Service) RegenerateInviteCode(ctx context.Context, groupID string) (string, error) {
	if s.db == nil {
		return "", ErrDBNil
	}

	var code string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadGroup(tx, groupID); err != nil {
			return err
		}

		var err error
		if code, err = freeInviteCode(tx); err != nil {
			return err
		}

		return tx.Model(&models.Group{}).
			Where("id = ?", groupID).
			Update("code", code).Error
	})
	if err != nil {
		return "", err
	}

	s.publish(ctx, groupID)

	return code, nil
}

// UpdateGroupName renames the group. Existence is checked with a read rather
// than inferred from affected rows: renaming a group to its current name is a
// valid no-op, not a missing group.
func (s *Service) UpdateGroupName(ctx context.Context, groupID, name string) error {
	if s.db == nil {
		return ErrDBNil
	}

	if name == "" {
		return ErrGroupNameEmpty
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, groupID)
		if err != nil {
			return err
		}

		group.Name = name

		return tx.Save(group).Error
	})
	if err != nil {
		return err
	}

	s.publish(ctx, groupID)

	return nil
}

// UpdateGroupSettings replaces the group's permission flags and module list
// wholesale in one transaction. An empty module list is a valid replacement:
// it switches every module off.
func (s *Service) UpdateGroupSettings(ctx context.Context, groupID string, settings models.GroupSettings) error {
	if s.db == nil {
		return ErrDBNil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, groupID)
		if err != nil {
			return err
		}

		group.Settings = settings

		return tx.Save(group).Error
	})
	if err != nil {
		return err
	}

	s.publish(ctx, groupID)

	return nil
}

// Group fetches a group by ID.
func (s *Service) Group(ctx context.Context, groupID string) (*models.Group, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	return loadGroup(s.db.WithContext(ctx), groupID)
}

// Snapshot reads the group together with its member and pending profiles in
// one consistent transaction. This is what listeners receive on every change.
func (s *Service) Snapshot(ctx context.Context, groupID string) (*GroupSnapshot, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var snap GroupSnapshot

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, groupID)
		if err != nil {
			return err
		}

		snap.Group = *group

		if err := memberProfiles(tx, groupID, models.MembershipMember, &snap.Members); err != nil {
			return err
		}

		return memberProfiles(tx, groupID, models.MembershipPending, &snap.Pending)
	})
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

// publish pushes a fresh snapshot of the group to the live hub.
// Failures are logged, never surfaced: the mutation already committed and
// listeners converge on the next snapshot.
func (s *Service) publish(ctx context.Context, groupID string) {
	if s.hub == nil {
		return
	}

	snap, err := s.Snapshot(ctx, groupID)
	if err != nil {
		if !errors.Is(err, ErrGroupNotFound) {
			log.Error().Err(err).Str("group", groupID).Msg("failed to build group snapshot")
		}

		return
	}

	s.hub.Publish(TopicGroup(groupID), snap)
}

// attachPending creates a pending membership and points the user's profile at
// the group. Re-requesting the same group is a no-op; any relation to a
// different group is a conflict.
func attachPending(tx *gorm.DB, groupID, userID string) error {
	user, err := lockUser(tx, userID)
	if err != nil {
		return err
	}

	if user.GroupID != nil {
		if *user.GroupID == groupID {
			return nil // already pending or member here, idempotent
		}

		return ErrAlreadyInGroup
	}

	if err := tx.Create(&models.Membership{
		GroupID: groupID,
		UserID:  userID,
		Status:  models.MembershipPending,
	}).Error; err != nil {
		return err
	}

	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("group_id", groupID).Error
}

// detachUser clears the group pointer and resets the role to member.
// Reject and remove share this so both paths leave the profile identical.
func detachUser(tx *gorm.DB, userID string) error {
	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"group_id": nil,
			"role":     models.RoleMember,
		}).Error
}

// otherAdminCount counts active members with the admin role besides the
// given user. Called inside the mutation transaction so the invariant check
// and the write are serialized per group.
func otherAdminCount(tx *gorm.DB, groupID, excludeUserID string) (int64, error) {
	var n int64

	err := tx.Table("users").
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.group_id = ? AND memberships.status = ?", groupID, models.MembershipMember).
		Where("users.role = ? AND users.id <> ?", models.RoleAdmin, excludeUserID).
		Count(&n).Error
	if err != nil {
		return 0, err
	}

	return n, nil
}

func memberProfiles(tx *gorm.DB, groupID string, status models.MembershipStatus, out *[]models.User) error {
	return tx.Table("users").
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.group_id = ? AND memberships.status = ?", groupID, status).
		Order("users.name").
		Find(out).Error
}

func loadGroup(tx *gorm.DB, groupID string) (*models.Group, error) {
	var group models.Group

	err := tx.Where("id = ?", groupID).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}

	if err != nil {
		return nil, err
	}

	return &group, nil
}

func lockUser(tx *gorm.DB, userID string) (*models.User, error) {
	var user models.User

	err := tx.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// freeInviteCode generates an invite code and verifies no group holds it
// yet, with a bounded retry budget. Collisions are unlikely at six characters
// over a 32 letter alphabet but a duplicate code would route joins to the
// wrong group, so the check is not optional.
func freeInviteCode(tx *gorm.DB) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := uniuri.NewLenChars(codeLen, codeChars)

		var n int64
		if err := tx.Model(&models.Group{}).Where("code = ?", code).Count(&n).Error; err != nil {
			return "", err
		}

		if n == 0 {
			return code, nil
		}
	}

	return "", ErrCodeCollision
}

// canInvite mirrors the group settings check the mobile client performs:
// admins and managers always may, plain members only when allowed.
func canInvite(actor *models.User, group *models.Group) bool {
	if actor.GroupID == nil || *actor.GroupID != group.ID {
		return false
	}

	switch actor.Role {
	case models.RoleAdmin, models.RoleManager:
		return true
	default:
		return group.Settings.AllowMembersToInvite
	}
}
