package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/drl-go-api/internal/dto"
	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/repository"
)

const qrTokenBytes = 32

// QRService issues short-lived check-in tokens and validates scan attempts.
type QRService interface {
	Issue(ctx context.Context, principal models.Principal, activityID uint, ttl time.Duration) (dto.QRSessionResponse, error)
	CheckIn(ctx context.Context, activityID uint, token string, studentID uint) (dto.RegistrationResponse, error)
}

type qrService struct {
	sessions      repository.QRSessionStore
	registrations repository.RegistrationRepository
	activities    repository.ActivityRepository
	decisions     repository.DecisionLogRepository
	authority     AuthorityResolver
	notifier      Notifier
	defaultTTL    time.Duration
	grace         time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewQRService builds the QR attendance service. The grace window keeps the
// stored session around past expiry so stale scans report expiry rather
// than an unknown token.
func NewQRService(
	sessions repository.QRSessionStore,
	registrations repository.RegistrationRepository,
	activities repository.ActivityRepository,
	decisions repository.DecisionLogRepository,
	authority AuthorityResolver,
	notifier Notifier,
	defaultTTL, grace time.Duration,
	logger zerolog.Logger,
) QRService {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	if grace < 0 {
		grace = 0
	}

	return &qrService{
		sessions:      sessions,
		registrations: registrations,
		activities:    activities,
		decisions:     decisions,
		authority:     authority,
		notifier:      notifier,
		defaultTTL:    defaultTTL,
		grace:         grace,
		logger:        logger.With().Str("component", "qr_service").Logger(),
		now:           time.Now,
	}
}

func (s *qrService) Issue(ctx context.Context, principal models.Principal, activityID uint, ttl time.Duration) (dto.QRSessionResponse, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QRSessionResponse{}, ErrActivityNotFound
		}
		return dto.QRSessionResponse{}, err
	}

	// Only the owning teacher or an admin may open a check-in session.
	allowed, err := s.authority.CanAct(ctx, principal, nil, activity, ActionIssueQR)
	if err != nil {
		return dto.QRSessionResponse{}, err
	}
	if !allowed {
		if !s.authority.CanView(principal, nil, activity) {
			return dto.QRSessionResponse{}, ErrActivityNotFound
		}
		return dto.QRSessionResponse{}, ErrForbidden
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	token, err := newQRToken()
	if err != nil {
		return dto.QRSessionResponse{}, err
	}

	now := s.now()
	session := models.QRSession{
		ActivityID: activityID,
		Token:      token,
		IssuedAt:   now,
		ExpiresAt:  now.Add(ttl),
		IssuerID:   principal.ID,
	}

	// Latest wins: storing replaces the previous session, invalidating its token.
	if err := s.sessions.Put(ctx, session, ttl+s.grace); err != nil {
		return dto.QRSessionResponse{}, err
	}

	s.logger.Info().Uint("activity_id", activityID).Time("expires_at", session.ExpiresAt).Msg("qr session issued")
	s.auditIssue(ctx, principal, activityID, session.ExpiresAt)

	return dto.NewQRSessionResponse(session), nil
}

func (s *qrService) CheckIn(ctx context.Context, activityID uint, token string, studentID uint) (dto.RegistrationResponse, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RegistrationResponse{}, ErrActivityNotFound
		}
		return dto.RegistrationResponse{}, err
	}

	session, err := s.sessions.Get(ctx, activityID)
	if err != nil {
		if errors.Is(err, repository.ErrQRSessionNotFound) {
			// The session record is gone: either none was issued or it aged
			// out past the grace window. Both read as an expired token.
			return dto.RegistrationResponse{}, ErrTokenExpired
		}
		return dto.RegistrationResponse{}, err
	}

	if session.Token != token {
		return dto.RegistrationResponse{}, ErrTokenMismatch
	}

	now := s.now()
	if session.Expired(now) {
		return dto.RegistrationResponse{}, ErrTokenExpired
	}

	registration, err := s.registrations.FindActive(ctx, activityID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RegistrationResponse{}, ErrNotApproved
		}
		return dto.RegistrationResponse{}, err
	}

	// Duplicate scans of an already recorded attendance succeed unchanged.
	if registration.Status == models.RegistrationStatusParticipated {
		return dto.NewRegistrationResponse(registration), nil
	}

	if registration.Status != models.RegistrationStatusApproved {
		return dto.RegistrationResponse{}, ErrNotApproved
	}

	if !activity.HasStarted(now) || activity.HasEnded(now) {
		return dto.RegistrationResponse{}, ErrOutsideActivityWindow
	}

	if err := registration.Apply(models.EventCheckIn, studentID, "", now); err != nil {
		return dto.RegistrationResponse{}, err
	}

	if err := s.registrations.Update(ctx, &registration); err != nil {
		return dto.RegistrationResponse{}, err
	}

	s.logger.Info().Uint("registration_id", registration.ID).Uint("activity_id", activityID).Msg("qr check-in recorded")
	if s.notifier != nil {
		event := NotificationEvent{
			Type:           NotificationAttendanceRecorded,
			RegistrationID: registration.ID,
			ActivityID:     activityID,
			RecipientID:    studentID,
			Payload:        map[string]any{"activity_title": activity.Title},
		}
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("registration_id", registration.ID).Msg("notification delivery failed")
		}
	}

	return dto.NewRegistrationResponse(registration), nil
}

func (s *qrService) auditIssue(ctx context.Context, principal models.Principal, activityID uint, expiresAt time.Time) {
	entry := models.DecisionLog{
		ActorID:    principal.ID,
		ActorRole:  string(principal.Role),
		Action:     string(ActionIssueQR),
		ActivityID: activityID,
		Metadata:   datatypes.JSONMap{"expires_at": expiresAt.Format(time.RFC3339)},
	}
	if err := s.decisions.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Uint("activity_id", activityID).Msg("failed to record decision log")
	}
}

func newQRToken() (string, error) {
	buf := make([]byte, qrTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
