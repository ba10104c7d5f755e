package dto

import (
	"time"

	"github.com/noah-isme/drl-go-api/internal/models"
)

// RegistrationResponse is the serialized registration returned to API clients.
// Status carries the wire values existing clients rely on (cho_duyet, ...).
type RegistrationResponse struct {
	ID             uint       `json:"id"`
	ActivityID     uint       `json:"activity_id"`
	StudentID      uint       `json:"student_id"`
	Status         string     `json:"status"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	DecidedBy      *uint      `json:"decided_by,omitempty"`
	DecisionReason string     `json:"decision_reason,omitempty"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
}

// NewRegistrationResponse converts a model into a DTO.
func NewRegistrationResponse(model models.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:             model.ID,
		ActivityID:     model.ActivityID,
		StudentID:      model.StudentID,
		Status:         string(model.Status),
		SubmittedAt:    model.SubmittedAt,
		DecidedAt:      model.DecidedAt,
		DecidedBy:      model.DecidedBy,
		DecisionReason: model.DecisionReason,
		CheckedInAt:    model.CheckedInAt,
	}
}

// NewRegistrationResponseSlice converts a slice of models into DTOs.
func NewRegistrationResponseSlice(registrations []models.Registration) []RegistrationResponse {
	responses := make([]RegistrationResponse, 0, len(registrations))
	for _, registration := range registrations {
		responses = append(responses, NewRegistrationResponse(registration))
	}

	return responses
}

// RejectRequest carries the mandatory reason for a rejection.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// BulkApproveRequest lists the registrations to approve.
type BulkApproveRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// BulkApproveResult reports the outcome for a single registration in a batch.
// Each id succeeds or fails on its own; there is no batch rollback.
type BulkApproveResult struct {
	RegistrationID uint   `json:"registration_id"`
	Success        bool   `json:"success"`
	Status         string `json:"status,omitempty"`
	Error          string `json:"error,omitempty"`
}

// BulkApproveResponse aggregates per-id outcomes.
type BulkApproveResponse struct {
	Results  []BulkApproveResult `json:"results"`
	Approved int                 `json:"approved"`
	Failed   int                 `json:"failed"`
}

// RegistrationListRequest filters an activity's registration queue.
type RegistrationListRequest struct {
	Status   string `query:"status" validate:"omitempty"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// RegistrationListResponse pairs items with paging metadata.
type RegistrationListResponse struct {
	Items      []RegistrationResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
}
