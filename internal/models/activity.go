package models

import (
	"errors"
	"time"
)

// ActivityStatus enumerates the lifecycle states of an activity.
type ActivityStatus string

const (
	ActivityStatusPendingApproval ActivityStatus = "pending_approval"
	ActivityStatusApproved        ActivityStatus = "approved"
	ActivityStatusRejected        ActivityStatus = "rejected"
	ActivityStatusCancelled       ActivityStatus = "cancelled"
	ActivityStatusEnded           ActivityStatus = "ended"
)

// ErrInvalidActivityWindow signals an activity whose time window is inconsistent.
var ErrInvalidActivityWindow = errors.New("invalid activity window")

// ParseActivityStatus validates a wire value against the closed status set.
func ParseActivityStatus(value string) (ActivityStatus, error) {
	switch status := ActivityStatus(value); status {
	case ActivityStatusPendingApproval, ActivityStatusApproved, ActivityStatusRejected,
		ActivityStatusCancelled, ActivityStatusEnded:
		return status, nil
	default:
		return "", errors.New("unrecognized activity status: " + value)
	}
}

// Activity represents a scheduled student event carrying conduct points.
type Activity struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Title                string         `gorm:"size:255;not null" json:"title"`
	Description          string         `gorm:"type:text" json:"description"`
	Capacity             *int           `json:"capacity"`
	AcceptedCount        int            `gorm:"not null;default:0" json:"accepted_count"`
	RegistrationDeadline *time.Time     `json:"registration_deadline"`
	StartTime            time.Time      `gorm:"not null" json:"start_time"`
	EndTime              time.Time      `gorm:"not null" json:"end_time"`
	Status               ActivityStatus `gorm:"size:32;not null;default:pending_approval" json:"status"`
	OwnerID              uint           `gorm:"not null;index" json:"owner_id"`
	ClassID              *uint          `gorm:"index" json:"class_id"`
	PointsAwarded        int            `gorm:"not null;default:0" json:"points_awarded"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// ValidateWindow checks the internal consistency of the activity timestamps.
// The deadline, when set, must not fall after the start.
func (a Activity) ValidateWindow() error {
	if a.StartTime.IsZero() || a.EndTime.IsZero() {
		return ErrInvalidActivityWindow
	}
	if a.EndTime.Before(a.StartTime) {
		return ErrInvalidActivityWindow
	}
	if a.RegistrationDeadline != nil && a.RegistrationDeadline.After(a.StartTime) {
		return ErrInvalidActivityWindow
	}
	return nil
}

// RegistrationOpen reports whether new registrations are accepted at the
// reference time. Without an explicit deadline the start time closes the window.
func (a Activity) RegistrationOpen(reference time.Time) bool {
	if a.Status != ActivityStatusApproved {
		return false
	}
	if a.RegistrationDeadline != nil {
		return reference.Before(*a.RegistrationDeadline)
	}
	return reference.Before(a.StartTime)
}

// HasStarted reports whether the activity has begun at the reference time.
func (a Activity) HasStarted(reference time.Time) bool {
	return !reference.Before(a.StartTime)
}

// HasEnded reports whether the activity is over at the reference time.
func (a Activity) HasEnded(reference time.Time) bool {
	return !reference.Before(a.EndTime)
}

// Unlimited reports whether the activity accepts any number of registrants.
func (a Activity) Unlimited() bool {
	return a.Capacity == nil
}

// EffectiveStatus derives the externally visible status: an approved activity
// whose end time has passed reads as ended without a stored transition.
func (a Activity) EffectiveStatus(reference time.Time) ActivityStatus {
	if a.Status == ActivityStatusApproved && a.HasEnded(reference) {
		return ActivityStatusEnded
	}
	return a.Status
}
