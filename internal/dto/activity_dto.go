package dto

import (
	"time"

	"github.com/noah-isme/drl-go-api/internal/models"
)

// ActivityCreateRequest describes the payload for creating an activity.
type ActivityCreateRequest struct {
	Title                string  `json:"title" validate:"required,min=3"`
	Description          string  `json:"description" validate:"omitempty"`
	Capacity             *int    `json:"capacity" validate:"omitempty,gte=1"`
	RegistrationDeadline *string `json:"registration_deadline" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	StartTime            string  `json:"start_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime              string  `json:"end_time" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ClassID              *uint   `json:"class_id" validate:"omitempty,gt=0"`
	PointsAwarded        int     `json:"points_awarded" validate:"omitempty,gte=0"`
}

// ActivityListRequest filters activity listings.
type ActivityListRequest struct {
	Status   string `query:"status" validate:"omitempty"`
	Search   string `query:"search" validate:"omitempty"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// ActivityResponse is the serialized representation returned to API clients.
type ActivityResponse struct {
	ID                   uint       `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Capacity             *int       `json:"capacity"`
	AcceptedCount        int        `json:"accepted_count"`
	RemainingSeats       *int       `json:"remaining_seats,omitempty"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	StartTime            time.Time  `json:"start_time"`
	EndTime              time.Time  `json:"end_time"`
	Status               string     `json:"status"`
	OwnerID              uint       `json:"owner_id"`
	ClassID              *uint      `json:"class_id,omitempty"`
	PointsAwarded        int        `json:"points_awarded"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewActivityResponse converts a model into a DTO. The status reflects the
// derived lifecycle: approved activities past their end read as ended.
// RemainingSeats is omitted for unlimited activities.
func NewActivityResponse(model models.Activity, reference time.Time) ActivityResponse {
	var remaining *int
	if !model.Unlimited() {
		seats := *model.Capacity - model.AcceptedCount
		if seats < 0 {
			seats = 0
		}
		remaining = &seats
	}

	return ActivityResponse{
		ID:                   model.ID,
		Title:                model.Title,
		Description:          model.Description,
		Capacity:             model.Capacity,
		AcceptedCount:        model.AcceptedCount,
		RemainingSeats:       remaining,
		RegistrationDeadline: model.RegistrationDeadline,
		StartTime:            model.StartTime,
		EndTime:              model.EndTime,
		Status:               string(model.EffectiveStatus(reference)),
		OwnerID:              model.OwnerID,
		ClassID:              model.ClassID,
		PointsAwarded:        model.PointsAwarded,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

// NewActivityResponseSlice converts a slice of models into DTOs.
func NewActivityResponseSlice(activities []models.Activity, reference time.Time) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, NewActivityResponse(activity, reference))
	}

	return responses
}

// ActivityListResponse pairs items with paging metadata.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}
