package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AutomationType identifies which side effect an automation performs.
// The scheduler treats it as an opaque tag; the executor dispatches on it.
type AutomationType string

const (
	AutomationRentReceipt         AutomationType = "rent_receipt"
	AutomationRentReview          AutomationType = "rent_review"
	AutomationInsuranceReminder   AutomationType = "insurance_reminder"
	AutomationMaintenanceReminder AutomationType = "maintenance_reminder"
	AutomationPaymentReminder     AutomationType = "payment_reminder"
	AutomationNoticeReminder      AutomationType = "notice_reminder"
)

// Valid reports whether t is one of the known automation types.
func (t AutomationType) Valid() bool {
	switch t {
	case AutomationRentReceipt, AutomationRentReview, AutomationInsuranceReminder,
		AutomationMaintenanceReminder, AutomationPaymentReminder, AutomationNoticeReminder:
		return true
	}
	return false
}

// Frequency determines the interval between two executions of an automation.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Automation represents a recurring unit of scheduled work (receipt
// generation, rent review, reminders). NextExecution is the single source
// of truth for when it is due.
type Automation struct {
	ID                 string         `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"not null" json:"name"`
	Description        string         `json:"description"`
	Type               AutomationType `gorm:"not null" json:"type"`
	Frequency          Frequency      `gorm:"not null" json:"frequency"`
	NextExecution      time.Time      `gorm:"not null;column:next_execution" json:"next_execution"`
	LastExecution      *time.Time     `gorm:"column:last_execution" json:"last_execution"`
	Active             bool           `gorm:"default:true" json:"active"`
	PropertyID         *string        `gorm:"column:property_id" json:"property_id"`
	ExecutionTime      string         `gorm:"column:execution_time" json:"execution_time"` // "HH:MM", display hint only
	EmailTemplateID    *string        `gorm:"column:email_template_id" json:"email_template_id"`
	DocumentTemplateID *string        `gorm:"column:document_template_id" json:"document_template_id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// IsDue reports whether the automation should be executed at the given time.
// Inactive automations are never due.
func (a *Automation) IsDue(now time.Time) bool {
	return a.Active && !a.NextExecution.After(now)
}

// BeforeCreate hook to generate UUID before creating record
func (a *Automation) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GORM
func (Automation) TableName() string {
	return "automations"
}
