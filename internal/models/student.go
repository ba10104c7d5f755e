package models

import "time"

// Student is the minimal projection of a student record the core needs:
// identity and class membership for authority checks. Account management
// lives upstream.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Code      string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	ClassID   *uint     `gorm:"index" json:"class_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
