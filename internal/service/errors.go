package service

import "errors"

// Expected, recoverable outcomes of the registration lifecycle. Handlers map
// each one to a dedicated HTTP status and message; only persistence failures
// surface as generic server errors.
var (
	ErrActivityNotFound     = errors.New("activity not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrForbidden            = errors.New("action not permitted")
	ErrAlreadyRegistered    = errors.New("student already registered for this activity")
	ErrRegistrationClosed   = errors.New("registration window is closed")
	ErrActivityStarted      = errors.New("activity has already started")
	ErrReasonRequired       = errors.New("a rejection reason is required")
	ErrActivityDecided      = errors.New("activity is no longer awaiting approval")

	ErrTokenExpired          = errors.New("check-in token expired")
	ErrTokenMismatch         = errors.New("check-in token does not match the active session")
	ErrNotApproved           = errors.New("registration is not approved")
	ErrOutsideActivityWindow = errors.New("check-in outside the activity window")
)
