package domain

import "errors"

var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrInvalidPayload    = errors.New("invalid payload")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrOrderingClosed    = errors.New("ordering is closed")
	ErrDuplicateOrder    = errors.New("an order already exists for this badge")
	ErrTableFull         = errors.New("table is full")
	ErrUnauthorized      = errors.New("authentication required")
	ErrForbidden         = errors.New("not allowed for this role")
)
