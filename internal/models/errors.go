package models

import (
	"errors"
)

var (
	// Session lifecycle (configuration) errors.
	ErrNoSession     = errors.New("no active session")
	ErrSessionActive = errors.New("previous session is still active, shut it down first")

	ErrUnknownMessage     = errors.New("unknown message_id")
	ErrNoCheckpoint       = errors.New("no checkpoint available, create one first")
	ErrMessageNotAssigned = errors.New("service did not assign a message_id")
	ErrInvalidState       = errors.New("invalid session state")
)
