package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/drl-go-api/internal/models"
)

// DecisionListRequest filters the audit trail of an activity.
type DecisionListRequest struct {
	Action   string `query:"action" validate:"omitempty"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// DecisionLogResponse is a serialized audit entry.
type DecisionLogResponse struct {
	ID             uint              `json:"id"`
	ActorID        uint              `json:"actor_id"`
	ActorRole      string            `json:"actor_role"`
	Action         string            `json:"action"`
	ActivityID     uint              `json:"activity_id"`
	RegistrationID *uint             `json:"registration_id,omitempty"`
	Metadata       datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewDecisionLogResponse converts an audit model into a DTO.
func NewDecisionLogResponse(model models.DecisionLog) DecisionLogResponse {
	return DecisionLogResponse{
		ID:             model.ID,
		ActorID:        model.ActorID,
		ActorRole:      model.ActorRole,
		Action:         model.Action,
		ActivityID:     model.ActivityID,
		RegistrationID: model.RegistrationID,
		Metadata:       model.Metadata,
		CreatedAt:      model.CreatedAt,
	}
}

// NewDecisionLogResponseSlice converts a slice of audit models into DTOs.
func NewDecisionLogResponseSlice(entries []models.DecisionLog) []DecisionLogResponse {
	responses := make([]DecisionLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewDecisionLogResponse(entry))
	}

	return responses
}

// DecisionListResponse pairs audit entries with paging metadata.
type DecisionListResponse struct {
	Items      []DecisionLogResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}
