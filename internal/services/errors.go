package services

import "errors"

var (
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrStorageUnavailable     = errors.New("storage service is not configured")
	ErrAIUnavailable          = errors.New("ai service is not configured")
	ErrAIBadResponse          = errors.New("ai service returned an unusable response")
	ErrNotInRoster            = errors.New("student is not in roster")
	ErrAlreadyInRoster        = errors.New("student already in roster")
	ErrNoActivePlan           = errors.New("student has no active plan")
	ErrNotFound               = errors.New("not found")
)
