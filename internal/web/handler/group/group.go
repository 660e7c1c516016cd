// Package group implements the group lifecycle and membership endpoints.
// Routes operate on the authenticated user's current group; admin-only
// operations check the actor's role before reaching the membership engine.
package group

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/auth"
	"github.com/bandsync/bandsync/internal/config"
	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/membership"
	"github.com/bandsync/bandsync/internal/web/handler"
)

const (
	// Path is the base path of the group endpoints.
	Path = "/api/groups"
)

// Service is the group handler service.
type Service struct {
	handler.Service
	cfg        *config.Config
	db         *gorm.DB
	membership *membership.Service
}

// Handler is the group handler.
var Handler = Service{}

// Init initializes the group handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, membershipService *membership.Service) error {
	if app == nil || cfg == nil || db == nil || membershipService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.membership = membershipService

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.Middleware(cfg.Auth.TokenSecret))

		router.Post(handler.RouterRootPath, s.Create)
		router.Post("/join", s.Join)

		router.Get("/current", s.Current)
		router.Patch("/current", s.Rename)
		router.Patch("/current/settings", s.UpdateSettings)
		router.Post("/current/code", s.RegenerateCode)
		router.Post("/current/invites", s.Invite)
		router.Post("/current/leave", s.Leave)

		router.Post("/current/members/:id/approve", s.Approve)
		router.Post("/current/members/:id/reject", s.Reject)
		router.Patch("/current/members/:id/role", s.ChangeRole)
		router.Delete("/current/members/:id", s.Remove)
	})

	return nil
}

// membershipStatuses is the shared error-to-status table of the engine.
var membershipStatuses = map[error]int{
	membership.ErrGroupNameEmpty: fiber.StatusBadRequest,
	membership.ErrInvalidRole:    fiber.StatusBadRequest,
	membership.ErrGroupNotFound:  fiber.StatusNotFound,
	membership.ErrUserNotFound:   fiber.StatusNotFound,
	membership.ErrCodeNotFound:   fiber.StatusNotFound,
	membership.ErrNotPending:     fiber.StatusNotFound,
	membership.ErrNotMember:      fiber.StatusNotFound,
	membership.ErrAlreadyInGroup: fiber.StatusConflict,
	membership.ErrLastAdmin:      fiber.StatusConflict,
	membership.ErrSelfDemotion:   fiber.StatusConflict,
	membership.ErrCodeCollision:  fiber.StatusConflict,
	membership.ErrNotAllowed:     fiber.StatusForbidden,
}

type createRequest struct {
	Name string `json:"name"`
}

// Create creates a new group owned by the authenticated user.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	created, err := s.membership.CreateGroup(c.Context(), req.Name, auth.UserID(c))
	if err != nil {
		return handler.FailWith(c, err, membershipStatuses)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

type joinRequest struct {
	Code string `json:"code"`
}

// Join files a membership request using an invite code.
func (s *Service) Join(c *fiber.Ctx) error {
	var req joinRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	joined, err := s.membership.JoinByCode(c.Context(), req.Code, auth.UserID(c))
	if err != nil {
		return handler.FailWith(c, err, membershipStatuses)
	}

	return c.JSON(joined)
}

// Current returns the full snapshot of the user's group.
func (s *Service) Current(c *fiber.Ctx) error {
	groupID, user, err := s.currentGroup(c)
	if user == nil {
		return err
	}

	snapshot, err := s.membership.Snapshot(c.Context(), groupID)
	if err != nil {
		return handler.FailWith(c, err, membershipStatuses)
	}

	// the invite code is only shown to active members
	if status := memberStatus(snapshot, user.ID); status != models.MembershipMember {
		snapshot.Group.Code = ""
	}

	return c.JSON(snapshot)
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename changes the group name. Admin only.
func (s *Service) Rename(c *fiber.Ctx) error {
	groupID, user, err := s.currentGroup(c)
	if user == nil {
		return err
	}

	if user.Role != models.RoleAdmin {
		return handler.Fail(c, fiber.StatusForbidden, "admin role required")
	}

	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.membership.UpdateGroupName(c.Context(), groupID, req.Name); err != nil {
		return handler.FailWith(c, err, membershipStatuses)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// UpdateSettings replaces the group settings. Admin only.
func (s *Service) UpdateSettings(c *fiber.Ctx) error {
	groupID, user, err := s.currentGroup(c)
	if user == nil {
		return err
	}

	if user.Role != models.RoleAdmin {
		return handler.Fail(c, fiber.StatusForbidden, "admin role required")
	}

	var settings models.GroupSettings
	if err := c.BodyParser(&settings); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := s.membership.UpdateGroupSettings(c.Context(), groupID, settings); err != nil {
		return handler.FailWith(c, err, membershipStatuses)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// RegenerateCode replaces the invite code. Admin only.
func (s *Service) RegenerateCode(c *fiber.Ctx) error {
	groupID, user, err := s.currentGroup(c)
	if user == nil {
		return err
	}

	if user.Role != models.RoleAdmin {
		return handler.Fail(c, fiber.StatusForbidden, "admin role required")
	}

	code, err := s.membership.RegenerateInviteCode(c.Context(), groupID)
	if err != nil {
		return handler.FailWith(c, err, membershipStatuses)
	}

	return c.JSON(fiber.Map{"code": code})
}

type inviteRequest struct {
	Email string `json:"email"`
}

// Invite files a membership request on behalf of another user by email.
// The engine checks whether the actor's role and the group settings allow it.
func (s *Service) Invite(c *fiber.Ctx) error {
	groupID, user, err := s.currentGroup(c)
	if user == nil {
		return err
	}

	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	invited, err := s.membership.InviteByEmail(c.Context(), groupID, user.ID, req.Email)
	if err != nil {
		return handler.FailWith(c, err, membershipStatuses)
	}

	return c.JSON(invited)
}

// Leave detaches the authenticated user from their group.
func (s *Service) Leave(c *fiber.Ctx) error {
	groupID, user, err := s.currentGroup(c)
	if user == nil {
		return err
	}

	if err := s.membership.Leave(c.Context(), groupID, user.ID); err != nil {
		return handler.FailWith(c, err, membershipStatuses)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// Approve accepts a pending membership request. Admin only.
func (s *Service) Approve(c *fiber.Ctx) error {
	return s.adminMemberAction(c, s.membership.Approve)
}

// Reject declines a pending membership request. Admin only.
func (s *Service) Reject(c *fiber.Ctx) error {
	return s.adminMemberAction(c, s.membership.Reject)
}

// Remove kicks an active member out of the group. Admin only.
func (s *Service) Remove(c *fiber.Ctx) error {
	return s.adminMemberAction(c, s.membership.Remove)
}

type changeRoleRequest struct {
	Role models.Role `json:"role"`
}

// ChangeRole assigns a new role to a member. Admin only.
func (s *Service) ChangeRole(c *fiber.Ctx) error {
	groupID, user, err := s.currentGroup(c)
	if user == nil {
		return err
	}

	if user.Role != models.RoleAdmin {
		return handler.Fail(c, fiber.StatusForbidden, "admin role required")
	}

	var req changeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	err = s.membership.ChangeRole(c.Context(), groupID, user.ID, c.Params("id"), req.Role)
	if err != nil {
		return handler.FailWith(c, err, membershipStatuses)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Service) adminMemberAction(c *fiber.Ctx, action func(ctx context.Context, groupID, userID string) error) error {
	groupID, user, err := s.currentGroup(c)
	if user == nil {
		return err
	}

	if user.Role != models.RoleAdmin {
		return handler.Fail(c, fiber.StatusForbidden, "admin role required")
	}

	if err := action(c.Context(), groupID, c.Params("id")); err != nil {
		return handler.FailWith(c, err, membershipStatuses)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// currentGroup resolves the acting user and their group ID.
func (s *Service) currentGroup(c *fiber.Ctx) (string, *models.User, error) {
	user, err := handler.CurrentUser(c, s.db, auth.UserID(c))
	if user == nil {
		return "", nil, err
	}

	groupID, err := handler.RequireGroup(c, user)
	if err != nil {
		return "", nil, err
	}

	return groupID, user, nil
}

func memberStatus(snapshot *membership.GroupSnapshot, userID string) models.MembershipStatus {
	for _, m := range snapshot.Members {
		if m.ID == userID {
			return models.MembershipMember
		}
	}

	for _, p := range snapshot.Pending {
		if p.ID == userID {
			return models.MembershipPending
		}
	}

	return ""
}
