package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/repository"
)

// Action names an operation subject to authority resolution.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
	ActionCheckIn Action = "check_in"
	ActionIssueQR Action = "issue_qr"
)

// AuthorityResolver is the single place role-based authority is decided.
// Precedence: admin, teacher-owner, class monitor, then the registrant.
type AuthorityResolver struct {
	students repository.StudentRepository
}

// NewAuthorityResolver builds the resolver. The student repository supplies
// class membership for monitor scope checks.
func NewAuthorityResolver(students repository.StudentRepository) AuthorityResolver {
	return AuthorityResolver{students: students}
}

// CanAct reports whether the principal may apply the action to the given
// registration within the activity. A nil registration is valid for
// activity-scoped actions such as issuing a QR session.
func (r AuthorityResolver) CanAct(ctx context.Context, principal models.Principal, registration *models.Registration, activity models.Activity, action Action) (bool, error) {
	switch principal.Role {
	case models.RoleAdmin:
		return true, nil

	case models.RoleTeacher:
		return activity.OwnerID == principal.ID, nil

	case models.RoleMonitor:
		if action != ActionApprove && action != ActionReject {
			return false, nil
		}
		if !principal.SameClass(activity.ClassID) {
			return false, nil
		}
		if registration == nil {
			return false, nil
		}
		studentClass, err := r.students.ClassOf(ctx, registration.StudentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		return principal.SameClass(studentClass), nil

	case models.RoleStudent:
		if action != ActionCancel {
			return false, nil
		}
		return registration != nil && registration.StudentID == principal.ID, nil

	default:
		return false, nil
	}
}

// CanView reports whether the principal has any visibility into the
// registration. Callers use it to answer not-found rather than forbidden
// when visibility is absent, so unauthorized principals learn nothing about
// whether a registration exists.
func (r AuthorityResolver) CanView(principal models.Principal, registration *models.Registration, activity models.Activity) bool {
	switch principal.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return activity.OwnerID == principal.ID
	case models.RoleMonitor:
		return principal.SameClass(activity.ClassID)
	case models.RoleStudent:
		return registration != nil && registration.StudentID == principal.ID
	default:
		return false
	}
}
