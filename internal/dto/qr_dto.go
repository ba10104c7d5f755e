package dto

import (
	"time"

	"github.com/noah-isme/drl-go-api/internal/models"
)

// QRIssueRequest configures a new check-in session.
type QRIssueRequest struct {
	TTLMinutes int `json:"ttl_minutes" validate:"omitempty,gte=1,lte=240"`
}

// QRSessionResponse returns the freshly issued check-in token.
type QRSessionResponse struct {
	ActivityID uint      `json:"activity_id"`
	Token      string    `json:"token"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewQRSessionResponse converts a session into its DTO.
func NewQRSessionResponse(session models.QRSession) QRSessionResponse {
	return QRSessionResponse{
		ActivityID: session.ActivityID,
		Token:      session.Token,
		IssuedAt:   session.IssuedAt,
		ExpiresAt:  session.ExpiresAt,
	}
}

// CheckInRequest carries the scanned token for a QR check-in.
type CheckInRequest struct {
	Token string `json:"token" validate:"required"`
}
