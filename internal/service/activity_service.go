package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/drl-go-api/internal/dto"
	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/repository"
)

// ActivityService exposes the activity lifecycle: creation by organizers
// and approval by admins, plus read access.
type ActivityService interface {
	Create(ctx context.Context, principal models.Principal, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	Get(ctx context.Context, id uint) (dto.ActivityResponse, error)
	List(ctx context.Context, payload dto.ActivityListRequest) (dto.ActivityListResponse, error)
	Approve(ctx context.Context, principal models.Principal, id uint) (dto.ActivityResponse, error)
	Reject(ctx context.Context, principal models.Principal, id uint, payload dto.RejectRequest) (dto.ActivityResponse, error)
	Cancel(ctx context.Context, principal models.Principal, id uint) (dto.ActivityResponse, error)
	Decisions(ctx context.Context, principal models.Principal, id uint, payload dto.DecisionListRequest) (dto.DecisionListResponse, error)
}

type activityService struct {
	activities repository.ActivityRepository
	decisions  repository.DecisionLogRepository
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	now        func() time.Time
}

// NewActivityService builds the activity lifecycle service.
func NewActivityService(activities repository.ActivityRepository, decisions repository.DecisionLogRepository, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		activities: activities,
		decisions:  decisions,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "activity_service").Logger(),
		now:        time.Now,
	}
}

func (s *activityService) Create(ctx context.Context, principal models.Principal, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	if principal.Role == models.RoleStudent {
		return dto.ActivityResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	startTime, err := time.Parse(time.RFC3339, payload.StartTime)
	if err != nil {
		return dto.ActivityResponse{}, fmt.Errorf("invalid start time: %w", err)
	}

	endTime, err := time.Parse(time.RFC3339, payload.EndTime)
	if err != nil {
		return dto.ActivityResponse{}, fmt.Errorf("invalid end time: %w", err)
	}

	var deadline *time.Time
	if payload.RegistrationDeadline != nil {
		parsed, err := time.Parse(time.RFC3339, *payload.RegistrationDeadline)
		if err != nil {
			return dto.ActivityResponse{}, fmt.Errorf("invalid registration deadline: %w", err)
		}
		deadline = &parsed
	}

	activity := models.Activity{
		Title:                strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Description:          strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		Capacity:             payload.Capacity,
		RegistrationDeadline: deadline,
		StartTime:            startTime,
		EndTime:              endTime,
		Status:               models.ActivityStatusPendingApproval,
		OwnerID:              principal.ID,
		ClassID:              payload.ClassID,
		PointsAwarded:        payload.PointsAwarded,
	}

	// Monitor-created activities are scoped to the monitor's own class.
	if principal.Role == models.RoleMonitor {
		activity.ClassID = principal.ClassID
	}

	// Admin-created activities skip the approval queue.
	if principal.IsAdmin() {
		activity.Status = models.ActivityStatusApproved
	}

	if err := activity.ValidateWindow(); err != nil {
		return dto.ActivityResponse{}, err
	}

	if err := s.activities.Create(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	s.logger.Info().Uint("activity_id", activity.ID).Str("status", string(activity.Status)).Msg("activity created")

	return dto.NewActivityResponse(activity, s.now()), nil
}

func (s *activityService) Get(ctx context.Context, id uint) (dto.ActivityResponse, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(activity, s.now()), nil
}

func (s *activityService) List(ctx context.Context, payload dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityListResponse{}, err
	}

	filter := repository.ActivityFilter{
		Search:   payload.Search,
		Page:     payload.Page,
		PageSize: payload.PageSize,
	}
	if payload.Status != "" {
		status, err := models.ParseActivityStatus(payload.Status)
		if err != nil {
			return dto.ActivityListResponse{}, err
		}
		filter.Status = status
	}

	activities, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	return dto.ActivityListResponse{
		Items:      dto.NewActivityResponseSlice(activities, s.now()),
		Pagination: dto.NewPaginationMeta(payload.Page, payload.PageSize, total),
	}, nil
}

func (s *activityService) Approve(ctx context.Context, principal models.Principal, id uint) (dto.ActivityResponse, error) {
	return s.decide(ctx, principal, id, models.ActivityStatusApproved, "")
}

func (s *activityService) Reject(ctx context.Context, principal models.Principal, id uint, payload dto.RejectRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	reason := strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason))
	if reason == "" {
		return dto.ActivityResponse{}, ErrReasonRequired
	}

	return s.decide(ctx, principal, id, models.ActivityStatusRejected, reason)
}

func (s *activityService) decide(ctx context.Context, principal models.Principal, id uint, target models.ActivityStatus, reason string) (dto.ActivityResponse, error) {
	// Activities are decided by a higher authority than their creator.
	if !principal.IsAdmin() {
		return dto.ActivityResponse{}, ErrForbidden
	}

	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	if activity.Status != models.ActivityStatusPendingApproval {
		return dto.ActivityResponse{}, ErrActivityDecided
	}

	activity.Status = target
	if err := s.activities.Update(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	metadata := datatypes.JSONMap{"status": string(target)}
	if reason != "" {
		metadata["reason"] = reason
	}
	s.audit(ctx, principal, "activity_"+string(target), activity.ID, metadata)

	return dto.NewActivityResponse(activity, s.now()), nil
}

func (s *activityService) Cancel(ctx context.Context, principal models.Principal, id uint) (dto.ActivityResponse, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		return dto.ActivityResponse{}, err
	}

	if !principal.IsAdmin() && activity.OwnerID != principal.ID {
		return dto.ActivityResponse{}, ErrForbidden
	}

	switch activity.Status {
	case models.ActivityStatusPendingApproval, models.ActivityStatusApproved:
	default:
		return dto.ActivityResponse{}, ErrActivityDecided
	}

	if activity.HasEnded(s.now()) {
		return dto.ActivityResponse{}, ErrActivityDecided
	}

	activity.Status = models.ActivityStatusCancelled
	if err := s.activities.Update(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, err
	}

	s.audit(ctx, principal, "activity_cancelled", activity.ID, nil)

	return dto.NewActivityResponse(activity, s.now()), nil
}

// Decisions returns the audit trail recorded against an activity. The trail
// exposes who decided what, so it stays admin-only.
func (s *activityService) Decisions(ctx context.Context, principal models.Principal, id uint, payload dto.DecisionListRequest) (dto.DecisionListResponse, error) {
	if !principal.IsAdmin() {
		return dto.DecisionListResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.DecisionListResponse{}, err
	}

	if _, err := s.activities.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DecisionListResponse{}, ErrActivityNotFound
		}
		return dto.DecisionListResponse{}, err
	}

	entries, total, err := s.decisions.List(ctx, repository.DecisionLogFilter{
		ActivityID: &id,
		Action:     payload.Action,
		Page:       payload.Page,
		PageSize:   payload.PageSize,
	})
	if err != nil {
		return dto.DecisionListResponse{}, err
	}

	return dto.DecisionListResponse{
		Items:      dto.NewDecisionLogResponseSlice(entries),
		Pagination: dto.NewPaginationMeta(payload.Page, payload.PageSize, total),
	}, nil
}

func (s *activityService) audit(ctx context.Context, principal models.Principal, action string, activityID uint, metadata datatypes.JSONMap) {
	entry := models.DecisionLog{
		ActorID:    principal.ID,
		ActorRole:  string(principal.Role),
		Action:     action,
		ActivityID: activityID,
		Metadata:   metadata,
	}
	if err := s.decisions.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record decision log")
	}
}
