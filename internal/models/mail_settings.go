package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MailSettings configures the transactional mail provider used by the
// action executor. A single row is expected; the API key is stored
// encrypted and never serialized.
type MailSettings struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Provider      string    `json:"provider"`
	BaseURL       string    `gorm:"not null;column:base_url" json:"base_url"`
	FromAddress   string    `gorm:"not null;column:from_address" json:"from_address"`
	FromName      string    `gorm:"column:from_name" json:"from_name"`
	NotifyAddress string    `gorm:"column:notify_address" json:"notify_address"` // owner's own inbox for reminders
	APIKeyEnc     string    `gorm:"not null;column:api_key_enc" json:"-"`        // Encrypted, never expose in JSON
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating record
func (ms *MailSettings) BeforeCreate(tx *gorm.DB) error {
	if ms.ID == "" {
		ms.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GORM
func (MailSettings) TableName() string {
	return "mail_settings"
}
