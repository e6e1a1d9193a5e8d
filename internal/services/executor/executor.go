package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"gorm.io/gorm"

	"rentdesk-desktop/internal/api"
	"rentdesk-desktop/internal/crypto"
	"rentdesk-desktop/internal/models"
)

// Service performs automation side effects: it composes emails from
// templates, sends them through the mail provider, writes rent receipt
// documents and records activity-feed notifications. The engine only sees
// its success/failure signal.
type Service struct {
	db  *gorm.DB
	ctx context.Context

	// Overridable in tests; defaults to building a client from MailSettings.
	newMailClient func() (*api.Client, *models.MailSettings, error)
}

// NewService creates a new executor service
func NewService(db *gorm.DB, ctx context.Context) *Service {
	s := &Service{db: db, ctx: ctx}
	s.newMailClient = s.mailClientFromSettings
	return s
}

// templateData is the payload available to email and document templates.
type templateData struct {
	Automation models.Automation
	Property   models.Property
	Total      float64 // rent plus charges
	Date       string
	Period     string
}

// Execute dispatches on the automation type.
func (s *Service) Execute(ctx context.Context, a *models.Automation) error {
	log.Printf("Executing automation: %s (%s, type=%s)", a.Name, a.ID, a.Type)

	switch a.Type {
	case models.AutomationRentReceipt:
		return s.runRentReceipt(ctx, a)
	case models.AutomationRentReview,
		models.AutomationInsuranceReminder,
		models.AutomationMaintenanceReminder,
		models.AutomationPaymentReminder,
		models.AutomationNoticeReminder:
		return s.runReminder(ctx, a)
	default:
		return fmt.Errorf("unknown automation type: %s", a.Type)
	}
}

// runRentReceipt renders the receipt document, stores it and emails it to
// the tenant.
func (s *Service) runRentReceipt(ctx context.Context, a *models.Automation) error {
	property, err := s.loadProperty(ctx, a)
	if err != nil {
		return err
	}
	if property.TenantEmail == "" {
		return fmt.Errorf("property %s has no tenant email", property.ID)
	}

	now := time.Now()
	data := s.buildData(a, property, now)

	docBody, err := s.renderDocument(ctx, a, data)
	if err != nil {
		return err
	}

	docPath, err := s.writeReceipt(property, docBody, now)
	if err != nil {
		return fmt.Errorf("failed to store receipt: %w", err)
	}
	log.Printf("Receipt written to %s", docPath)

	subject, body, err := s.renderEmail(ctx, a, data)
	if err != nil {
		return err
	}

	client, settings, err := s.newMailClient()
	if err != nil {
		return err
	}

	msg := api.MailMessage{
		To:          property.TenantEmail,
		ToName:      property.TenantName,
		FromAddress: settings.FromAddress,
		FromName:    settings.FromName,
		Subject:     subject,
		TextBody:    body,
	}
	if err := client.SendMail(ctx, msg); err != nil {
		return err
	}

	s.recordNotification(ctx, a, property, subject)
	return nil
}

// runReminder composes and sends a reminder email. Payment reminders go to
// the tenant; the other reminder types go to the owner's notify address.
func (s *Service) runReminder(ctx context.Context, a *models.Automation) error {
	var property *models.Property
	if a.PropertyID != nil {
		p, err := s.loadProperty(ctx, a)
		if err != nil {
			return err
		}
		property = p
	} else {
		property = &models.Property{}
	}

	data := s.buildData(a, property, time.Now())

	subject, body, err := s.renderEmail(ctx, a, data)
	if err != nil {
		return err
	}

	client, settings, err := s.newMailClient()
	if err != nil {
		return err
	}

	msg := api.MailMessage{
		FromAddress: settings.FromAddress,
		FromName:    settings.FromName,
		Subject:     subject,
		TextBody:    body,
	}

	if a.Type == models.AutomationPaymentReminder {
		if property.TenantEmail == "" {
			return fmt.Errorf("payment reminder requires a property with a tenant email")
		}
		msg.To = property.TenantEmail
		msg.ToName = property.TenantName
	} else {
		if settings.NotifyAddress == "" {
			return fmt.Errorf("mail settings have no notify address for owner reminders")
		}
		msg.To = settings.NotifyAddress
		msg.ToName = settings.FromName
	}

	if err := client.SendMail(ctx, msg); err != nil {
		return err
	}

	s.recordNotification(ctx, a, property, subject)
	return nil
}

func (s *Service) loadProperty(ctx context.Context, a *models.Automation) (*models.Property, error) {
	if a.PropertyID == nil || *a.PropertyID == "" {
		return nil, fmt.Errorf("automation %s has no property", a.ID)
	}

	var property models.Property
	if err := s.db.WithContext(ctx).First(&property, "id = ?", *a.PropertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("property %s not found", *a.PropertyID)
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	return &property, nil
}

func (s *Service) buildData(a *models.Automation, property *models.Property, now time.Time) templateData {
	return templateData{
		Automation: *a,
		Property:   *property,
		Total:      property.RentAmount + property.ChargesAmount,
		Date:       now.Format("2006-01-02"),
		Period:     now.Format("January 2006"),
	}
}

// renderEmail uses the referenced email template, or the built-in default
// for the automation type when none is set.
func (s *Service) renderEmail(ctx context.Context, a *models.Automation, data templateData) (subject, body string, err error) {
	subjectTmpl, bodyTmpl := defaultEmail(a.Type)

	if a.EmailTemplateID != nil && *a.EmailTemplateID != "" {
		var tmpl models.EmailTemplate
		if err := s.db.WithContext(ctx).First(&tmpl, "id = ?", *a.EmailTemplateID).Error; err != nil {
			return "", "", fmt.Errorf("failed to load email template %s: %w", *a.EmailTemplateID, err)
		}
		subjectTmpl, bodyTmpl = tmpl.Subject, tmpl.Body
	}

	subject, err = render("subject", subjectTmpl, data)
	if err != nil {
		return "", "", err
	}
	body, err = render("body", bodyTmpl, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

// renderDocument uses the referenced document template, or the built-in
// receipt layout when none is set.
func (s *Service) renderDocument(ctx context.Context, a *models.Automation, data templateData) (string, error) {
	bodyTmpl := defaultReceiptDocument

	if a.DocumentTemplateID != nil && *a.DocumentTemplateID != "" {
		var tmpl models.DocumentTemplate
		if err := s.db.WithContext(ctx).First(&tmpl, "id = ?", *a.DocumentTemplateID).Error; err != nil {
			return "", fmt.Errorf("failed to load document template %s: %w", *a.DocumentTemplateID, err)
		}
		bodyTmpl = tmpl.Body
	}

	return render("document", bodyTmpl, data)
}

// render executes a text/template source against the data payload.
func render(name, source string, data templateData) (string, error) {
	tmpl, err := template.New(name).Parse(source)
	if err != nil {
		return "", fmt.Errorf("invalid %s template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", name, err)
	}
	return buf.String(), nil
}

// writeReceipt stores the rendered receipt under the user's document folder.
func (s *Service) writeReceipt(property *models.Property, body string, now time.Time) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	docsDir := filepath.Join(configDir, "rentdesk", "documents")
	if err := os.MkdirAll(docsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create documents directory: %w", err)
	}

	name := fmt.Sprintf("receipt-%s-%s.txt", property.ID, now.Format("2006-01"))
	path := filepath.Join(docsDir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}
	return path, nil
}

// recordNotification appends an activity-feed entry. Failures are logged,
// not propagated: the side effect itself already succeeded.
func (s *Service) recordNotification(ctx context.Context, a *models.Automation, property *models.Property, title string) {
	message := fmt.Sprintf("Automation %q executed", a.Name)
	if property.Name != "" {
		message = fmt.Sprintf("Automation %q executed for %s", a.Name, property.Name)
	}

	n := &models.Notification{
		Type:       string(a.Type),
		Title:      title,
		Message:    message,
		PropertyID: a.PropertyID,
	}

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		log.Printf("WARNING: Failed to record notification for automation %s: %v", a.ID, err)
	}
}

// mailClientFromSettings builds an API client from the stored settings.
func (s *Service) mailClientFromSettings() (*api.Client, *models.MailSettings, error) {
	var settings models.MailSettings
	if err := s.db.First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("mail settings are not configured")
		}
		return nil, nil, fmt.Errorf("failed to load mail settings: %w", err)
	}

	apiKey, err := crypto.DecryptSecret(settings.APIKeyEnc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt mail API key: %w", err)
	}

	return api.NewClient(settings.BaseURL, apiKey), &settings, nil
}
