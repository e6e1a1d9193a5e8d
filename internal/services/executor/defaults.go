package executor

import "rentdesk-desktop/internal/models"

// Built-in email templates used when an automation has no template reference.
// Bodies are text/template sources rendered against templateData.
var defaultEmails = map[models.AutomationType]struct {
	subject string
	body    string
}{
	models.AutomationRentReceipt: {
		subject: "Rent receipt - {{.Property.Name}} - {{.Period}}",
		body: `Hello {{.Property.TenantName}},

Please find attached your rent receipt for {{.Property.Name}} covering {{.Period}}.

Rent: {{printf "%.2f" .Property.RentAmount}}
Charges: {{printf "%.2f" .Property.ChargesAmount}}

Best regards`,
	},
	models.AutomationRentReview: {
		subject: "Rent review due - {{.Property.Name}}",
		body: `The annual rent review for {{.Property.Name}} is due.

Current rent: {{printf "%.2f" .Property.RentAmount}}
Date: {{.Date}}`,
	},
	models.AutomationInsuranceReminder: {
		subject: "Insurance certificate reminder - {{.Property.Name}}",
		body: `The tenant insurance certificate for {{.Property.Name}} needs to be renewed.

Tenant: {{.Property.TenantName}}
Date: {{.Date}}`,
	},
	models.AutomationMaintenanceReminder: {
		subject: "Maintenance reminder - {{.Property.Name}}",
		body: `Scheduled maintenance is due for {{.Property.Name}}.

{{.Automation.Description}}
Date: {{.Date}}`,
	},
	models.AutomationPaymentReminder: {
		subject: "Rent payment reminder - {{.Period}}",
		body: `Hello {{.Property.TenantName}},

This is a reminder that the rent for {{.Property.Name}} ({{.Period}}) is due.

Amount: {{printf "%.2f" .Property.RentAmount}}

Best regards`,
	},
	models.AutomationNoticeReminder: {
		subject: "Notice period reminder - {{.Property.Name}}",
		body: `A notice period deadline is approaching for {{.Property.Name}}.

{{.Automation.Description}}
Date: {{.Date}}`,
	},
}

// defaultEmail returns the built-in subject/body for an automation type.
func defaultEmail(t models.AutomationType) (subject, body string) {
	if d, ok := defaultEmails[t]; ok {
		return d.subject, d.body
	}
	return "Automation executed: {{.Automation.Name}}", "{{.Automation.Description}}"
}

// defaultReceiptDocument is the built-in rent receipt layout.
const defaultReceiptDocument = `RENT RECEIPT

Property: {{.Property.Name}}
{{.Property.Address}}
{{.Property.PostalCode}} {{.Property.City}}

Tenant: {{.Property.TenantName}}
Period: {{.Period}}

Rent:            {{printf "%.2f" .Property.RentAmount}}
Charges:         {{printf "%.2f" .Property.ChargesAmount}}
Total received:  {{printf "%.2f" .Total}}

Issued on {{.Date}}.
`
