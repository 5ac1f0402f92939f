package store

import "errors"

var (
	ErrClientNotFound     = errors.New("client not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrModuleTypeNotFound = errors.New("module type not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrAttendantNotFound  = errors.New("attendant not found")
	ErrServiceNotFound    = errors.New("service not found")
	ErrShiftNotFound      = errors.New("shift not found")
	ErrInvalidState       = errors.New("invalid shift state")
	ErrModuleMismatch     = errors.New("module does not belong to room")
	ErrDuplicate          = errors.New("duplicate value")
	ErrInUse              = errors.New("resource in use")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccessDenied       = errors.New("access denied")
	ErrSessionNotFound    = errors.New("session not found")
)
