package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/drl-go-api/internal/dto"
	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/repository"
)

// RegistrationService composes the registration lifecycle use cases:
// register, cancel, approve, reject, bulk-approve and manual attendance.
type RegistrationService interface {
	Register(ctx context.Context, principal models.Principal, activityID uint) (dto.RegistrationResponse, error)
	Cancel(ctx context.Context, principal models.Principal, registrationID uint) (dto.RegistrationResponse, error)
	Approve(ctx context.Context, principal models.Principal, registrationID uint) (dto.RegistrationResponse, error)
	Reject(ctx context.Context, principal models.Principal, registrationID uint, payload dto.RejectRequest) (dto.RegistrationResponse, error)
	BulkApprove(ctx context.Context, principal models.Principal, payload dto.BulkApproveRequest) (dto.BulkApproveResponse, error)
	MarkAttendance(ctx context.Context, principal models.Principal, registrationID uint) (dto.RegistrationResponse, error)
	ListByActivity(ctx context.Context, principal models.Principal, activityID uint, payload dto.RegistrationListRequest) (dto.RegistrationListResponse, error)
}

type registrationService struct {
	registrations repository.RegistrationRepository
	activities    repository.ActivityRepository
	ledger        repository.CapacityLedger
	decisions     repository.DecisionLogRepository
	authority     AuthorityResolver
	notifier      Notifier
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewRegistrationService builds the registration orchestrator.
func NewRegistrationService(
	registrations repository.RegistrationRepository,
	activities repository.ActivityRepository,
	ledger repository.CapacityLedger,
	decisions repository.DecisionLogRepository,
	authority AuthorityResolver,
	notifier Notifier,
	validate *validator.Validate,
	logger zerolog.Logger,
) RegistrationService {
	return &registrationService{
		registrations: registrations,
		activities:    activities,
		ledger:        ledger,
		decisions:     decisions,
		authority:     authority,
		notifier:      notifier,
		validator:     validate,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "registration_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/drl-go-api/internal/service/registration"),
		now:           time.Now,
	}
}

func (s *registrationService) Register(ctx context.Context, principal models.Principal, activityID uint) (dto.RegistrationResponse, error) {
	if principal.Role != models.RoleStudent && principal.Role != models.RoleMonitor {
		return dto.RegistrationResponse{}, ErrForbidden
	}

	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return dto.RegistrationResponse{}, err
	}

	now := s.now()
	if !activity.RegistrationOpen(now) {
		return dto.RegistrationResponse{}, ErrRegistrationClosed
	}

	if _, err := s.registrations.FindActive(ctx, activityID, principal.ID); err == nil {
		return dto.RegistrationResponse{}, ErrAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.RegistrationResponse{}, err
	}

	registration := models.Registration{
		ActivityID:  activityID,
		StudentID:   principal.ID,
		Status:      models.RegistrationStatusPending,
		SubmittedAt: now,
	}
	if err := s.registrations.Create(ctx, &registration); err != nil {
		// The partial unique index catches the race two concurrent
		// submissions win against the duplicate pre-check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.RegistrationResponse{}, ErrAlreadyRegistered
		}
		return dto.RegistrationResponse{}, err
	}

	s.logger.Info().Uint("registration_id", registration.ID).Uint("activity_id", activityID).Msg("registration submitted")
	s.notify(ctx, NotificationEvent{
		Type:           NotificationRegistrationSubmitted,
		RegistrationID: registration.ID,
		ActivityID:     activityID,
		RecipientID:    principal.ID,
		Payload:        map[string]any{"activity_title": activity.Title},
	})

	return dto.NewRegistrationResponse(registration), nil
}

func (s *registrationService) Approve(ctx context.Context, principal models.Principal, registrationID uint) (dto.RegistrationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "registration.approve", trace.WithAttributes(
		attribute.Int64("registration.id", int64(registrationID)),
	))
	defer span.End()

	registration, err := s.approveOne(ctx, principal, registrationID)
	if err != nil {
		return dto.RegistrationResponse{}, err
	}

	return dto.NewRegistrationResponse(registration), nil
}

// approveOne applies a single approval; shared by Approve and BulkApprove.
func (s *registrationService) approveOne(ctx context.Context, principal models.Principal, registrationID uint) (models.Registration, error) {
	registration, activity, err := s.loadPair(ctx, registrationID)
	if err != nil {
		return models.Registration{}, err
	}

	if err := s.authorize(ctx, principal, &registration, activity, ActionApprove); err != nil {
		return models.Registration{}, err
	}

	// Surface an illegal transition before a seat is consumed.
	if _, err := models.NextRegistrationStatus(registration.Status, models.EventApprove); err != nil {
		return models.Registration{}, err
	}

	// Capacity is enforced here, at approval time: pending registrations may
	// outnumber capacity and approvals race for the remaining seats.
	if err := s.ledger.TryReserve(ctx, activity.ID); err != nil {
		return models.Registration{}, err
	}

	now := s.now()
	if err := registration.Apply(models.EventApprove, principal.ID, "", now); err != nil {
		// Unreachable after the legality pre-check, but releasing keeps the
		// ledger consistent if it ever fires.
		_ = s.ledger.Release(ctx, activity.ID)
		return models.Registration{}, err
	}

	if err := s.registrations.Update(ctx, &registration); err != nil {
		if releaseErr := s.ledger.Release(ctx, activity.ID); releaseErr != nil {
			s.logger.Error().Err(releaseErr).Uint("activity_id", activity.ID).Msg("failed to release reserved seat")
		}
		return models.Registration{}, err
	}

	s.audit(ctx, principal, string(ActionApprove), activity.ID, &registration.ID, nil)
	s.notify(ctx, NotificationEvent{
		Type:           NotificationRegistrationApproved,
		RegistrationID: registration.ID,
		ActivityID:     activity.ID,
		RecipientID:    registration.StudentID,
		Payload:        map[string]any{"activity_title": activity.Title},
	})

	return registration, nil
}

func (s *registrationService) Reject(ctx context.Context, principal models.Principal, registrationID uint, payload dto.RejectRequest) (dto.RegistrationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RegistrationResponse{}, err
	}

	reason := strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason))
	if reason == "" {
		return dto.RegistrationResponse{}, ErrReasonRequired
	}

	registration, activity, err := s.loadPair(ctx, registrationID)
	if err != nil {
		return dto.RegistrationResponse{}, err
	}

	if err := s.authorize(ctx, principal, &registration, activity, ActionReject); err != nil {
		return dto.RegistrationResponse{}, err
	}

	if err := registration.Apply(models.EventReject, principal.ID, reason, s.now()); err != nil {
		return dto.RegistrationResponse{}, err
	}

	if err := s.registrations.Update(ctx, &registration); err != nil {
		return dto.RegistrationResponse{}, err
	}

	s.audit(ctx, principal, string(ActionReject), activity.ID, &registration.ID, datatypes.JSONMap{"reason": reason})
	s.notify(ctx, NotificationEvent{
		Type:           NotificationRegistrationRejected,
		RegistrationID: registration.ID,
		ActivityID:     activity.ID,
		RecipientID:    registration.StudentID,
		Payload:        map[string]any{"activity_title": activity.Title, "reason": reason},
	})

	return dto.NewRegistrationResponse(registration), nil
}

func (s *registrationService) Cancel(ctx context.Context, principal models.Principal, registrationID uint) (dto.RegistrationResponse, error) {
	registration, activity, err := s.loadPair(ctx, registrationID)
	if err != nil {
		return dto.RegistrationResponse{}, err
	}

	isRegistrant := registration.StudentID == principal.ID
	if registration.Status == models.RegistrationStatusApproved {
		// An approved seat can only be given up by the registrant.
		if !isRegistrant {
			return dto.RegistrationResponse{}, s.denied(principal, &registration, activity)
		}
	} else if !isRegistrant {
		if err := s.authorize(ctx, principal, &registration, activity, ActionCancel); err != nil {
			return dto.RegistrationResponse{}, err
		}
	}

	now := s.now()
	if activity.HasStarted(now) {
		return dto.RegistrationResponse{}, ErrActivityStarted
	}

	wasApproved := registration.Status == models.RegistrationStatusApproved
	if err := registration.Apply(models.EventCancel, principal.ID, "", now); err != nil {
		return dto.RegistrationResponse{}, err
	}

	if err := s.registrations.Update(ctx, &registration); err != nil {
		return dto.RegistrationResponse{}, err
	}

	if wasApproved {
		if err := s.ledger.Release(ctx, activity.ID); err != nil {
			s.logger.Error().Err(err).Uint("activity_id", activity.ID).Msg("failed to release cancelled seat")
		}
	}

	s.audit(ctx, principal, string(ActionCancel), activity.ID, &registration.ID, nil)
	s.notify(ctx, NotificationEvent{
		Type:           NotificationRegistrationCancelled,
		RegistrationID: registration.ID,
		ActivityID:     activity.ID,
		RecipientID:    registration.StudentID,
		Payload:        map[string]any{"activity_title": activity.Title},
	})

	return dto.NewRegistrationResponse(registration), nil
}

func (s *registrationService) BulkApprove(ctx context.Context, principal models.Principal, payload dto.BulkApproveRequest) (dto.BulkApproveResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BulkApproveResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "registration.bulk_approve", trace.WithAttributes(
		attribute.Int("registration.batch_size", len(payload.IDs)),
	))
	defer span.End()

	response := dto.BulkApproveResponse{Results: make([]dto.BulkApproveResult, 0, len(payload.IDs))}
	for _, id := range payload.IDs {
		registration, err := s.approveOne(ctx, principal, id)
		if err != nil {
			response.Failed++
			response.Results = append(response.Results, dto.BulkApproveResult{
				RegistrationID: id,
				Success:        false,
				Error:          err.Error(),
			})
			continue
		}

		response.Approved++
		response.Results = append(response.Results, dto.BulkApproveResult{
			RegistrationID: id,
			Success:        true,
			Status:         string(registration.Status),
		})
	}

	return response, nil
}

func (s *registrationService) MarkAttendance(ctx context.Context, principal models.Principal, registrationID uint) (dto.RegistrationResponse, error) {
	registration, activity, err := s.loadPair(ctx, registrationID)
	if err != nil {
		return dto.RegistrationResponse{}, err
	}

	if err := s.authorize(ctx, principal, &registration, activity, ActionCheckIn); err != nil {
		return dto.RegistrationResponse{}, err
	}

	// Duplicate marks are tolerated so a second scan of the roster is a no-op.
	if registration.Status == models.RegistrationStatusParticipated {
		return dto.NewRegistrationResponse(registration), nil
	}

	// Manual marking by an authority may happen outside the activity window.
	if err := registration.Apply(models.EventCheckIn, principal.ID, "", s.now()); err != nil {
		return dto.RegistrationResponse{}, err
	}

	if err := s.registrations.Update(ctx, &registration); err != nil {
		return dto.RegistrationResponse{}, err
	}

	s.audit(ctx, principal, string(ActionCheckIn), activity.ID, &registration.ID, datatypes.JSONMap{"manual": true})
	s.notify(ctx, NotificationEvent{
		Type:           NotificationAttendanceRecorded,
		RegistrationID: registration.ID,
		ActivityID:     activity.ID,
		RecipientID:    registration.StudentID,
		Payload:        map[string]any{"activity_title": activity.Title},
	})

	return dto.NewRegistrationResponse(registration), nil
}

func (s *registrationService) ListByActivity(ctx context.Context, principal models.Principal, activityID uint, payload dto.RegistrationListRequest) (dto.RegistrationListResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RegistrationListResponse{}, err
	}

	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return dto.RegistrationListResponse{}, err
	}

	if !s.authority.CanView(principal, nil, activity) {
		return dto.RegistrationListResponse{}, ErrActivityNotFound
	}

	filter := repository.RegistrationFilter{
		ActivityID: &activityID,
		Page:       payload.Page,
		PageSize:   payload.PageSize,
	}
	if payload.Status != "" {
		status, err := models.ParseRegistrationStatus(payload.Status)
		if err != nil {
			return dto.RegistrationListResponse{}, err
		}
		filter.Status = status
	}

	registrations, total, err := s.registrations.List(ctx, filter)
	if err != nil {
		return dto.RegistrationListResponse{}, err
	}

	return dto.RegistrationListResponse{
		Items:      dto.NewRegistrationResponseSlice(registrations),
		Pagination: dto.NewPaginationMeta(payload.Page, payload.PageSize, total),
	}, nil
}

func (s *registrationService) loadActivity(ctx context.Context, activityID uint) (models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}

	return activity, nil
}

func (s *registrationService) loadPair(ctx context.Context, registrationID uint) (models.Registration, models.Activity, error) {
	registration, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Registration{}, models.Activity{}, ErrRegistrationNotFound
		}
		return models.Registration{}, models.Activity{}, err
	}

	activity, err := s.loadActivity(ctx, registration.ActivityID)
	if err != nil {
		return models.Registration{}, models.Activity{}, err
	}

	return registration, activity, nil
}

// authorize resolves authority and maps denials: principals without any
// visibility get not-found, visible-but-unauthorized get forbidden.
func (s *registrationService) authorize(ctx context.Context, principal models.Principal, registration *models.Registration, activity models.Activity, action Action) error {
	allowed, err := s.authority.CanAct(ctx, principal, registration, activity, action)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}

	return s.denied(principal, registration, activity)
}

func (s *registrationService) denied(principal models.Principal, registration *models.Registration, activity models.Activity) error {
	if !s.authority.CanView(principal, registration, activity) {
		return ErrRegistrationNotFound
	}
	return ErrForbidden
}

func (s *registrationService) audit(ctx context.Context, principal models.Principal, action string, activityID uint, registrationID *uint, metadata datatypes.JSONMap) {
	entry := models.DecisionLog{
		ActorID:        principal.ID,
		ActorRole:      string(principal.Role),
		Action:         action,
		ActivityID:     activityID,
		RegistrationID: registrationID,
		Metadata:       metadata,
	}
	if err := s.decisions.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record decision log")
	}
}

// notify delivers an event to the notification sink. Failures are logged
// and never roll back the state transition that produced the event.
func (s *registrationService) notify(ctx context.Context, event NotificationEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Uint("registration_id", event.RegistrationID).Msg("notification delivery failed")
	}
}
