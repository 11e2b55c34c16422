package common

import "errors"

// Error taxonomy shared by the messaging core. Repositories and services
// wrap these so callers can classify failures with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
)
