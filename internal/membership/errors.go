package membership

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")

	// ErrGroupNameEmpty is returned when attempting to create a group without a name.
	ErrGroupNameEmpty = errors.New("group name cannot be empty")

	// ErrGroupNotFound is returned when a group lookup misses.
	ErrGroupNotFound = errors.New("group not found")

	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")

	// ErrCodeNotFound is returned when no group matches an invite code.
	// A regenerated code invalidates the old one immediately, so stale codes
	// fail the same way as codes that never existed.
	ErrCodeNotFound = errors.New("no group matches this invite code")

	// ErrCodeCollision is returned when a unique invite code could not be
	// generated within the retry budget.
	ErrCodeCollision = errors.New("could not generate a unique invite code")

	// ErrAlreadyInGroup is returned when a user who already belongs to or
	// awaits approval for a group is pushed toward another one.
	ErrAlreadyInGroup = errors.New("user already belongs to a group")

	// ErrNotPending is returned when approve/reject targets a user without a
	// pending request for the group.
	ErrNotPending = errors.New("user has no pending request for this group")

	// ErrNotMember is returned when an operation targets a user who is not an
	// active member of the group.
	ErrNotMember = errors.New("user is not a member of this group")

	// ErrLastAdmin is returned when a mutation would leave a non-empty group
	// without any admin.
	ErrLastAdmin = errors.New("group must retain at least one admin")

	// ErrSelfDemotion is returned when an admin tries to change their own
	// role away from admin.
	ErrSelfDemotion = errors.New("admins cannot demote themselves")

	// ErrInvalidRole is returned when a role change names an unknown role.
	ErrInvalidRole = errors.New("unknown role")

	// ErrNotAllowed is returned when the acting user's role does not permit
	// the operation.
	ErrNotAllowed = errors.New("insufficient role for this action")
)
