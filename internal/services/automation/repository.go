package automation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"rentdesk-desktop/internal/models"
)

// GormRepository is the database-backed automation store. It also records
// execution runs, so it satisfies both Repository and RunRecorder.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository on top of the given database handle
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// List returns all automations, newest first.
func (r *GormRepository) List(ctx context.Context) ([]models.Automation, error) {
	var automations []models.Automation
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&automations).Error; err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	return automations, nil
}

// GetByID returns one automation or ErrNotFound.
func (r *GormRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	var a models.Automation
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load automation: %w", err)
	}
	return &a, nil
}

// Create inserts a new automation.
func (r *GormRepository) Create(ctx context.Context, a *models.Automation) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create automation: %w", err)
	}
	return nil
}

// Update saves the full automation record.
func (r *GormRepository) Update(ctx context.Context, a *models.Automation) error {
	if err := r.db.WithContext(ctx).Save(a).Error; err != nil {
		return fmt.Errorf("failed to update automation: %w", err)
	}
	return nil
}

// Delete removes an automation by id.
func (r *GormRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Automation{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}
	return nil
}

// RecordRun stores an execution record.
func (r *GormRepository) RecordRun(ctx context.Context, run *models.AutomationRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}
