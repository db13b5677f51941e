package domain

import "errors"

var (
	ErrNotConfigured    = errors.New("database not configured")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUserNotFound     = errors.New("user not found")
	ErrRoleNotFound     = errors.New("role not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotSignedIn      = errors.New("not signed in")
	ErrNoActiveLogin    = errors.New("no active login found")
	ErrInvalidLogin     = errors.New("invalid email or password")
)
