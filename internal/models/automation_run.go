package models

import (
	"time"
)

// Run statuses
const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// AutomationRun records one execution attempt of an automation, successful
// or not. Background failures are silent to the user except through these
// records.
type AutomationRun struct {
	ID           string     `gorm:"primaryKey" json:"id"` // UUID
	AutomationID string     `gorm:"not null;index;column:automation_id" json:"automation_id"`
	Status       string     `gorm:"not null" json:"status"` // success, failed
	Error        string     `gorm:"type:text" json:"error"`
	StartedAt    time.Time  `gorm:"column:started_at" json:"started_at"`
	FinishedAt   *time.Time `gorm:"column:finished_at" json:"finished_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM
func (AutomationRun) TableName() string {
	return "automation_runs"
}
