package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/drl-go-api/internal/models"
)

// DecisionLogFilter narrows decision log queries.
type DecisionLogFilter struct {
	ActivityID *uint
	ActorID    *uint
	Action     string
	Page       int
	PageSize   int
}

// DecisionLogRepository persists the audit trail of registration decisions.
type DecisionLogRepository interface {
	Create(ctx context.Context, entry *models.DecisionLog) error
	List(ctx context.Context, filter DecisionLogFilter) ([]models.DecisionLog, int64, error)
}

type decisionLogRepository struct {
	db *gorm.DB
}

// NewDecisionLogRepository constructs the decision log repository.
func NewDecisionLogRepository(db *gorm.DB) DecisionLogRepository {
	return &decisionLogRepository{db: db}
}

func (r *decisionLogRepository) Create(ctx context.Context, entry *models.DecisionLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *decisionLogRepository) List(ctx context.Context, filter DecisionLogFilter) ([]models.DecisionLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DecisionLog{})

	if filter.ActivityID != nil {
		query = query.Where("activity_id = ?", *filter.ActivityID)
	}

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
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

	var entries []models.DecisionLog
	if err := query.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
