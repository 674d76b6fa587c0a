package types

import "errors"

// Sentinel errors for bullet/playbook structural validation. Using
// sentinels allows callers to match with errors.Is for reliable error
// handling rather than string comparison.
var (
	// ErrBulletIDRequired is returned when a bullet is missing its id.
	ErrBulletIDRequired = errors.New("bullet id must not be empty")

	// ErrBulletIDInvalid is returned when an id contains disallowed characters.
	ErrBulletIDInvalid = errors.New("bullet id contains invalid characters")

	// ErrContentRequired is returned when bullet content is empty.
	ErrContentRequired = errors.New("bullet content must not be empty")

	// ErrScopeInvalid is returned when scope is not one of global/workspace/repo.
	ErrScopeInvalid = errors.New("scope must be one of global, workspace, repo")

	// ErrDeltaTargetRequired is returned when update/invert/deprecate omit id.
	ErrDeltaTargetRequired = errors.New("delta target id must not be empty")
)
