package automation

import (
	"time"

	"rentdesk-desktop/internal/models"
)

// CreateAutomationRequest carries the fields needed to create an automation.
// Active defaults to true when omitted.
type CreateAutomationRequest struct {
	Name               string                `json:"name"`
	Description        string                `json:"description"`
	Type               models.AutomationType `json:"type"`
	Frequency          models.Frequency      `json:"frequency"`
	NextExecution      time.Time             `json:"next_execution"`
	Active             *bool                 `json:"active"`
	PropertyID         *string               `json:"property_id"`
	ExecutionTime      string                `json:"execution_time"`
	EmailTemplateID    *string               `json:"email_template_id"`
	DocumentTemplateID *string               `json:"document_template_id"`
}

// UpdateAutomationRequest is a partial update; nil fields are left unchanged.
type UpdateAutomationRequest struct {
	Name               *string                `json:"name"`
	Description        *string                `json:"description"`
	Type               *models.AutomationType `json:"type"`
	Frequency          *models.Frequency      `json:"frequency"`
	NextExecution      *time.Time             `json:"next_execution"`
	Active             *bool                  `json:"active"`
	PropertyID         *string                `json:"property_id"`
	ExecutionTime      *string                `json:"execution_time"`
	EmailTemplateID    *string                `json:"email_template_id"`
	DocumentTemplateID *string                `json:"document_template_id"`
}
