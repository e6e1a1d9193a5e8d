package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property represents a rented unit together with its current tenant.
// Automations reference a property to scope their side effect.
type Property struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"not null" json:"name"`
	Address       string     `json:"address"`
	City          string     `json:"city"`
	PostalCode    string     `gorm:"column:postal_code" json:"postal_code"`
	RentAmount    float64    `gorm:"column:rent_amount" json:"rent_amount"`
	ChargesAmount float64    `gorm:"column:charges_amount" json:"charges_amount"`
	TenantName    string     `gorm:"column:tenant_name" json:"tenant_name"`
	TenantEmail   string     `gorm:"column:tenant_email" json:"tenant_email"`
	LeaseStart    *time.Time `gorm:"column:lease_start" json:"lease_start"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating record
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GORM
func (Property) TableName() string {
	return "properties"
}
