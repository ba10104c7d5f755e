package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/drl-go-api/internal/models"
)

// ErrCapacityExceeded is returned when a reservation would push the accepted
// count past the activity capacity.
var ErrCapacityExceeded = errors.New("activity capacity exhausted")

// CapacityLedger tracks accepted registrants per activity. Reservations must
// serialize per activity so concurrent approvals cannot over-admit.
type CapacityLedger interface {
	// TryReserve atomically increments the accepted count if headroom exists.
	// Unlimited activities always succeed.
	TryReserve(ctx context.Context, activityID uint) error
	// Release decrements the accepted count after a cancel-after-approval.
	Release(ctx context.Context, activityID uint) error
}

type gormCapacityLedger struct {
	db *gorm.DB
}

// NewCapacityLedger builds a ledger backed by a conditional UPDATE on the
// activities row, which the database serializes per row.
func NewCapacityLedger(db *gorm.DB) CapacityLedger {
	return &gormCapacityLedger{db: db}
}

func (l *gormCapacityLedger) TryReserve(ctx context.Context, activityID uint) error {
	result := l.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ? AND (capacity IS NULL OR accepted_count < capacity)", activityID).
		UpdateColumn("accepted_count", gorm.Expr("accepted_count + 1"))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// Distinguish a full activity from a missing row.
		var count int64
		if err := l.db.WithContext(ctx).Model(&models.Activity{}).Where("id = ?", activityID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrCapacityExceeded
	}

	return nil
}

func (l *gormCapacityLedger) Release(ctx context.Context, activityID uint) error {
	return l.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("id = ? AND accepted_count > 0", activityID).
		UpdateColumn("accepted_count", gorm.Expr("accepted_count - 1")).Error
}
