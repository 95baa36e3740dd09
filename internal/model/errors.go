package model

import "errors"

// Sentinel errors shared by the store, triage and API layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidTransition = errors.New("status transition not allowed")
)
