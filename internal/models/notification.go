package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is an activity-feed entry shown on the dashboard, written by
// the action executor after a side effect completes.
type Notification struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Type       string    `gorm:"not null" json:"type"` // automation type that produced it
	Title      string    `gorm:"not null" json:"title"`
	Message    string    `gorm:"type:text" json:"message"`
	PropertyID *string   `gorm:"column:property_id" json:"property_id"`
	Read       bool      `gorm:"default:false" json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate hook to generate UUID before creating record
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}
