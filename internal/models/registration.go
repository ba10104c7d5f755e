package models

import (
	"errors"
	"fmt"
	"time"
)

// RegistrationStatus enumerates the lifecycle states of a registration.
// The wire values are the Vietnamese strings existing clients depend on.
type RegistrationStatus string

const (
	RegistrationStatusPending      RegistrationStatus = "cho_duyet"
	RegistrationStatusApproved     RegistrationStatus = "da_duyet"
	RegistrationStatusRejected     RegistrationStatus = "tu_choi"
	RegistrationStatusCancelled    RegistrationStatus = "da_huy"
	RegistrationStatusParticipated RegistrationStatus = "da_tham_gia"
)

// RegistrationEvent names a transition request against a registration.
type RegistrationEvent string

const (
	EventApprove RegistrationEvent = "approve"
	EventReject  RegistrationEvent = "reject"
	EventCancel  RegistrationEvent = "cancel"
	EventCheckIn RegistrationEvent = "check_in"
)

// IllegalTransitionError reports a (status, event) pair outside the
// transition table. The stored status is left untouched by callers.
type IllegalTransitionError struct {
	From  RegistrationStatus
	Event RegistrationEvent
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: event %q not allowed from status %q", e.Event, e.From)
}

// registrationTransitions is the closed transition table. Anything absent
// here is illegal; guards (authority, window, capacity) live in the services.
var registrationTransitions = map[RegistrationStatus]map[RegistrationEvent]RegistrationStatus{
	RegistrationStatusPending: {
		EventApprove: RegistrationStatusApproved,
		EventReject:  RegistrationStatusRejected,
		EventCancel:  RegistrationStatusCancelled,
	},
	RegistrationStatusApproved: {
		EventCancel:  RegistrationStatusCancelled,
		EventCheckIn: RegistrationStatusParticipated,
	},
}

// NextRegistrationStatus resolves the target status for an event, or an
// IllegalTransitionError when the pair is not in the table.
func NextRegistrationStatus(current RegistrationStatus, event RegistrationEvent) (RegistrationStatus, error) {
	if targets, ok := registrationTransitions[current]; ok {
		if next, ok := targets[event]; ok {
			return next, nil
		}
	}
	return "", &IllegalTransitionError{From: current, Event: event}
}

// ParseRegistrationStatus validates a wire value against the closed status set.
func ParseRegistrationStatus(value string) (RegistrationStatus, error) {
	switch status := RegistrationStatus(value); status {
	case RegistrationStatusPending, RegistrationStatusApproved, RegistrationStatusRejected,
		RegistrationStatusCancelled, RegistrationStatusParticipated:
		return status, nil
	default:
		return "", errors.New("unrecognized registration status: " + value)
	}
}

// Registration is a student's request to participate in an activity.
// The partial unique index holds the invariant at the store: at most one
// non-cancelled registration per (activity, student) pair, even when two
// submissions race past the application-level duplicate check.
type Registration struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	ActivityID     uint               `gorm:"not null;uniqueIndex:idx_registration_active,where:status <> 'da_huy'" json:"activity_id"`
	StudentID      uint               `gorm:"not null;uniqueIndex:idx_registration_active" json:"student_id"`
	Status         RegistrationStatus `gorm:"size:32;not null;default:cho_duyet" json:"status"`
	SubmittedAt    time.Time          `gorm:"not null" json:"submitted_at"`
	DecidedAt      *time.Time         `json:"decided_at"`
	DecidedBy      *uint              `json:"decided_by"`
	DecisionReason string             `gorm:"type:text" json:"decision_reason"`
	CheckedInAt    *time.Time         `json:"checked_in_at"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	Activity Activity `gorm:"foreignKey:ActivityID" json:"-"`
}

// Terminal reports whether no further transition can apply.
func (r Registration) Terminal() bool {
	_, ok := registrationTransitions[r.Status]
	return !ok
}

// Apply mutates the registration for a legal transition, stamping decision
// fields for decided events. Illegal pairs return without mutation.
func (r *Registration) Apply(event RegistrationEvent, actorID uint, reason string, at time.Time) error {
	next, err := NextRegistrationStatus(r.Status, event)
	if err != nil {
		return err
	}

	r.Status = next
	switch event {
	case EventApprove, EventReject:
		r.DecidedAt = &at
		r.DecidedBy = &actorID
		r.DecisionReason = reason
	case EventCheckIn:
		r.CheckedInAt = &at
	}

	return nil
}
