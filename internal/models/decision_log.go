package models

import (
	"time"

	"gorm.io/datatypes"
)

// DecisionLog captures auditable decisions taken on registrations and activities.
type DecisionLog struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	ActorID        uint              `gorm:"not null" json:"actor_id"`
	ActorRole      string            `gorm:"size:32;not null" json:"actor_role"`
	Action         string            `gorm:"size:64;not null" json:"action"`
	ActivityID     uint              `gorm:"not null;index" json:"activity_id"`
	RegistrationID *uint             `json:"registration_id"`
	Metadata       datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt      time.Time         `json:"created_at"`
}
