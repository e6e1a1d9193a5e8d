package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"gorm.io/gorm"

	"rentdesk-desktop/internal/api"
	"rentdesk-desktop/internal/crypto"
	"rentdesk-desktop/internal/database"
	"rentdesk-desktop/internal/models"
	"rentdesk-desktop/internal/services/automation"
	"rentdesk-desktop/internal/services/executor"
	"rentdesk-desktop/internal/services/scheduler"
)

// App struct - main application state
type App struct {
	ctx    context.Context
	db     *gorm.DB
	engine *automation.Engine
	facade *automation.Facade
	loop   *scheduler.Loop
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	log.Println("Application starting up...")

	// Initialize encryption (FATAL if this fails - we cannot store the mail API key without it)
	if err := crypto.InitEncryption(); err != nil {
		log.Fatalf("FATAL: Encryption initialization failed: %v\nMail settings cannot be saved without encryption.", err)
	}
	log.Println("Encryption initialized successfully")

	// Initialize database
	db, err := database.Init()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	a.db = db
	log.Println("Database initialized successfully")

	// Initialize services
	executorService := executor.NewService(db, ctx)
	log.Println("Executor service initialized")

	repo := automation.NewGormRepository(db)
	executionTimeout := getEnvDuration("EXECUTION_TIMEOUT", automation.DefaultExecutionTimeout)
	a.engine = automation.NewEngine(ctx, repo, executorService, repo, executionTimeout)
	log.Println("Automation engine initialized")

	// The loop scans through the facade so subscribers see the result of
	// every scheduled run.
	scanInterval := getEnvDuration("SCHEDULER_INTERVAL", scheduler.DefaultInterval)
	a.loop = scheduler.NewLoop(scheduler.RunnerFunc(func(now time.Time) (int, error) {
		return a.facade.ExecuteAllDue(now)
	}), scanInterval)

	a.facade = automation.NewFacade(ctx, a.engine, repo, a.loop)
	a.facade.Subscribe(func(automations []models.Automation) {
		runtime.EventsEmit(a.ctx, "automations:updated", automations)
	})

	if err := a.loop.Start(); err != nil {
		log.Printf("WARNING: Failed to start scheduler: %v", err)
	} else {
		log.Println("Scheduler service initialized and started")
	}

	log.Println("Startup complete")
}

// shutdown is called when the app is closing
func (a *App) shutdown(ctx context.Context) {
	log.Println("Application shutting down...")

	// Stop scheduler
	if a.loop != nil {
		a.loop.Stop()
	}

	// Close database
	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Shutdown complete")
}

// getEnvDuration retrieves a duration from environment variable with default fallback
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ====================================================================================
// WAILS-BOUND METHODS - Exposed to Frontend
// ====================================================================================

// Automation Methods

// ListAutomations returns all automations
func (a *App) ListAutomations() ([]models.Automation, error) {
	return a.facade.List()
}

// GetAutomation retrieves a specific automation by ID
func (a *App) GetAutomation(id string) (*models.Automation, error) {
	return a.facade.Get(id)
}

// CreateAutomation creates a new automation
func (a *App) CreateAutomation(req automation.CreateAutomationRequest) (*models.Automation, error) {
	return a.facade.Create(req)
}

// UpdateAutomation applies a partial update to an automation
func (a *App) UpdateAutomation(id string, req automation.UpdateAutomationRequest) (*models.Automation, error) {
	return a.facade.Update(id, req)
}

// DeleteAutomation removes an automation
func (a *App) DeleteAutomation(id string) error {
	return a.facade.Delete(id)
}

// ToggleAutomation flips an automation's active flag
func (a *App) ToggleAutomation(id string) (*models.Automation, error) {
	return a.facade.ToggleActive(id)
}

// RunAutomationNow executes an automation immediately
func (a *App) RunAutomationNow(id string) (automation.ExecutionResult, error) {
	return a.facade.ExecuteNow(id)
}

// RunDueAutomations scans for and executes all due automations
func (a *App) RunDueAutomations() (int, error) {
	return a.facade.ExecuteAllDue(time.Now())
}

// Scheduler Methods

// IsSchedulerActive reports whether the background scheduler is running
func (a *App) IsSchedulerActive() bool {
	return a.facade.IsSchedulerActive()
}

// StartScheduler starts the background scheduler
func (a *App) StartScheduler() error {
	return a.facade.StartScheduler()
}

// StopScheduler stops the background scheduler
func (a *App) StopScheduler() {
	a.facade.StopScheduler()
}

// ListAutomationRuns retrieves recent execution records, newest first
func (a *App) ListAutomationRuns(automationID string, limit int) ([]models.AutomationRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := a.db.Order("started_at DESC").Limit(limit)
	if automationID != "" {
		query = query.Where("automation_id = ?", automationID)
	}

	var runs []models.AutomationRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// Notification Methods

// ListNotifications retrieves recent activity-feed entries
func (a *App) ListNotifications(limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	var notifications []models.Notification
	if err := a.db.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead marks one notification as read
func (a *App) MarkNotificationRead(id string) error {
	return a.db.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}

// Property Methods

// ListProperties returns all properties
func (a *App) ListProperties() ([]models.Property, error) {
	var properties []models.Property
	if err := a.db.Order("name").Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

// GetProperty retrieves a specific property by ID
func (a *App) GetProperty(id string) (*models.Property, error) {
	var property models.Property
	if err := a.db.First(&property, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// CreateProperty creates a new property
func (a *App) CreateProperty(property models.Property) (*models.Property, error) {
	if property.Name == "" {
		return nil, errors.New("property name is required")
	}
	property.ID = ""
	if err := a.db.Create(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// UpdateProperty updates an existing property
func (a *App) UpdateProperty(id string, update models.Property) (*models.Property, error) {
	var property models.Property
	if err := a.db.First(&property, "id = ?", id).Error; err != nil {
		return nil, err
	}

	update.ID = property.ID
	update.CreatedAt = property.CreatedAt
	if err := a.db.Save(&update).Error; err != nil {
		return nil, err
	}
	return &update, nil
}

// DeleteProperty deletes a property
func (a *App) DeleteProperty(id string) error {
	return a.db.Delete(&models.Property{}, "id = ?", id).Error
}

// Template Methods

// ListEmailTemplates returns all email templates
func (a *App) ListEmailTemplates() ([]models.EmailTemplate, error) {
	var templates []models.EmailTemplate
	if err := a.db.Order("name").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// SaveEmailTemplate creates or updates an email template
func (a *App) SaveEmailTemplate(tmpl models.EmailTemplate) (*models.EmailTemplate, error) {
	if tmpl.Name == "" {
		return nil, errors.New("template name is required")
	}
	if err := a.db.Save(&tmpl).Error; err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// DeleteEmailTemplate removes an email template
func (a *App) DeleteEmailTemplate(id string) error {
	return a.db.Delete(&models.EmailTemplate{}, "id = ?", id).Error
}

// ListDocumentTemplates returns all document templates
func (a *App) ListDocumentTemplates() ([]models.DocumentTemplate, error) {
	var templates []models.DocumentTemplate
	if err := a.db.Order("name").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// SaveDocumentTemplate creates or updates a document template
func (a *App) SaveDocumentTemplate(tmpl models.DocumentTemplate) (*models.DocumentTemplate, error) {
	if tmpl.Name == "" {
		return nil, errors.New("template name is required")
	}
	if err := a.db.Save(&tmpl).Error; err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// DeleteDocumentTemplate removes a document template
func (a *App) DeleteDocumentTemplate(id string) error {
	return a.db.Delete(&models.DocumentTemplate{}, "id = ?", id).Error
}

// Mail Settings Methods

// SaveMailSettingsRequest carries mail provider configuration.
// The API key arrives in plain text and is stored encrypted.
type SaveMailSettingsRequest struct {
	Provider      string `json:"provider"`
	BaseURL       string `json:"base_url"`
	FromAddress   string `json:"from_address"`
	FromName      string `json:"from_name"`
	NotifyAddress string `json:"notify_address"`
	APIKey        string `json:"api_key"`
}

// GetMailSettings returns the stored mail settings (API key omitted), or nil
func (a *App) GetMailSettings() (*models.MailSettings, error) {
	var settings models.MailSettings
	if err := a.db.First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// SaveMailSettings creates or updates the mail provider configuration
func (a *App) SaveMailSettings(req SaveMailSettingsRequest) error {
	if !crypto.IsInitialized() {
		return errors.New("encryption system not initialized - cannot save mail settings")
	}
	if req.BaseURL == "" || req.FromAddress == "" {
		return errors.New("base URL and from address are required")
	}

	var settings models.MailSettings
	err := a.db.First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	settings.Provider = req.Provider
	settings.BaseURL = req.BaseURL
	settings.FromAddress = req.FromAddress
	settings.FromName = req.FromName
	settings.NotifyAddress = req.NotifyAddress

	// Encrypt the API key if provided
	if req.APIKey != "" {
		enc, encErr := crypto.EncryptSecret(req.APIKey)
		if encErr != nil {
			return encErr
		}
		settings.APIKeyEnc = enc
	}
	if settings.APIKeyEnc == "" {
		return errors.New("an API key is required")
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return a.db.Create(&settings).Error
	}
	return a.db.Save(&settings).Error
}

// TestMailConnectionRequest represents a mail provider test request
type TestMailConnectionRequest struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

// TestMailConnectionResponse represents the test result
type TestMailConnectionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TestMailConnection tests a mail provider configuration without saving it
func (a *App) TestMailConnection(req TestMailConnectionRequest) TestMailConnectionResponse {
	client := api.NewClient(req.BaseURL, req.APIKey)

	if err := client.TestConnection(a.ctx); err != nil {
		return TestMailConnectionResponse{
			Success: false,
			Error:   fmt.Sprintf("Connection failed: %v", err),
		}
	}

	return TestMailConnectionResponse{Success: true}
}
