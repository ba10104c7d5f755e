package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/drl-go-api/internal/models"
)

// RegistrationFilter narrows registration listings.
type RegistrationFilter struct {
	ActivityID *uint
	StudentID  *uint
	Status     models.RegistrationStatus
	Page       int
	PageSize   int
}

// RegistrationRepository defines persistence operations for registrations.
type RegistrationRepository interface {
	GetByID(ctx context.Context, id uint) (models.Registration, error)
	// FindActive returns the one non-cancelled registration for the pair,
	// or gorm.ErrRecordNotFound when none exists.
	FindActive(ctx context.Context, activityID, studentID uint) (models.Registration, error)
	List(ctx context.Context, filter RegistrationFilter) ([]models.Registration, int64, error)
	Create(ctx context.Context, registration *models.Registration) error
	Update(ctx context.Context, registration *models.Registration) error
}

type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository instantiates a GORM-backed repository.
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) GetByID(ctx context.Context, id uint) (models.Registration, error) {
	var registration models.Registration
	if err := r.db.WithContext(ctx).First(&registration, id).Error; err != nil {
		return models.Registration{}, err
	}

	return registration, nil
}

func (r *registrationRepository) FindActive(ctx context.Context, activityID, studentID uint) (models.Registration, error) {
	var registration models.Registration
	err := r.db.WithContext(ctx).
		Where("activity_id = ? AND student_id = ? AND status <> ?", activityID, studentID, models.RegistrationStatusCancelled).
		First(&registration).Error
	if err != nil {
		return models.Registration{}, err
	}

	return registration, nil
}

func (r *registrationRepository) List(ctx context.Context, filter RegistrationFilter) ([]models.Registration, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Registration{})

	if filter.ActivityID != nil {
		query = query.Where("activity_id = ?", *filter.ActivityID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var registrations []models.Registration
	if err := query.Order("submitted_at ASC").Find(&registrations).Error; err != nil {
		return nil, 0, err
	}

	return registrations, total, nil
}

func (r *registrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	return r.db.WithContext(ctx).Create(registration).Error
}

func (r *registrationRepository) Update(ctx context.Context, registration *models.Registration) error {
	return r.db.WithContext(ctx).Save(registration).Error
}
