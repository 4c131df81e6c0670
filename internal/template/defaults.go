package template

import (
	"time"

	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/task"
)

const day = 24 * time.Hour

// NewDefaultRegistry creates a registry with the built-in templates.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	// Built-in names are unique and valid.
	_ = r.Register(NewSiteVisitTemplate())
	_ = r.Register(NewPaymentFollowUpTemplate())
	_ = r.Register(NewDocumentCollectionTemplate())
	_ = r.Register(NewMaintenanceInvoiceTemplate())
	_ = r.RegisterAlias("visit", "site-visit")
	_ = r.RegisterAlias("kyc", "document-collection")

	return r
}

// NewSiteVisitTemplate plans a customer site visit with its logistics.
func NewSiteVisitTemplate() *Template {
	return &Template{
		Name:        "site-visit",
		Description: "Customer site visit with transport and follow-up",
		Variables: map[string]Variable{
			"customer": {Description: "Customer name", Required: true},
			"project":  {Description: "Project to visit", Required: true},
		},
		Task: Blueprint{
			Title:    "Site visit: {{customer}} at {{project}}",
			Category: constants.CategorySiteVisit,
			Priority: constants.PriorityHigh,
			Tags:     []string{"site-visit", "{{project}}"},
			Checklist: []string{
				"Confirm visit slot with customer",
				"Share location pin",
				"Brief site engineer",
			},
			DueIn: 2 * day,
			SLA:   domain.SLAConfig{TargetResolutionHours: 24, WarningThresholdHours: ptrFloat(12)},
		},
		SubTasks: []Blueprint{
			{
				Title:    "Arrange pickup for {{customer}}",
				Category: constants.CategoryGeneral,
				DueIn:    day,
			},
			{
				Title:    "Post-visit follow-up with {{customer}}",
				Category: constants.CategoryFollowUp,
				DueIn:    3 * day,
			},
		},
	}
}

// NewPaymentFollowUpTemplate chases an outstanding installment.
func NewPaymentFollowUpTemplate() *Template {
	return &Template{
		Name:        "payment-follow-up",
		Description: "Follow up on a due installment",
		Variables: map[string]Variable{
			"unit":        {Description: "Unit number", Required: true},
			"installment": {Description: "Installment label", Default: "next installment"},
		},
		Task: Blueprint{
			Title:    "Collect {{installment}} for unit {{unit}}",
			Category: constants.CategoryPayment,
			Priority: constants.PriorityHigh,
			Checklist: []string{
				"Send payment reminder",
				"Call customer",
				"Confirm receipt with accounts",
			},
			DueIn: 3 * day,
			SLA:   domain.SLAConfig{TargetResolutionHours: 48, WarningThresholdHours: ptrFloat(24)},
		},
	}
}

// NewDocumentCollectionTemplate gathers KYC and agreement documents.
func NewDocumentCollectionTemplate() *Template {
	return &Template{
		Name:        "document-collection",
		Description: "Collect KYC and booking documents",
		Variables: map[string]Variable{
			"customer": {Description: "Customer name", Required: true},
		},
		Task: Blueprint{
			Title:    "Collect documents from {{customer}}",
			Category: constants.CategoryDocumentation,
			Priority: constants.PriorityMedium,
			Checklist: []string{
				"PAN card",
				"Address proof",
				"Passport size photographs",
				"Signed booking form",
			},
			DueIn: 7 * day,
			SLA:   domain.SLAConfig{TargetResolutionHours: 72},
		},
	}
}

// NewMaintenanceInvoiceTemplate raises the monthly maintenance invoice.
func NewMaintenanceInvoiceTemplate() *Template {
	return &Template{
		Name:        "maintenance-invoice",
		Description: "Monthly maintenance invoice for a project",
		Variables: map[string]Variable{
			"project": {Description: "Project name", Required: true},
		},
		Task: Blueprint{
			Title:      "Raise maintenance invoices for {{project}}",
			Category:   constants.CategoryMaintenance,
			Priority:   constants.PriorityMedium,
			Checklist:  []string{"Generate invoices", "Email residents", "Update ledger"},
			DueIn:      5 * day,
			SLA:        domain.SLAConfig{TargetResolutionHours: 24},
			Recurrence: &task.RecurrenceParams{Pattern: constants.RecurrenceMonthly, Interval: 1},
		},
	}
}

func ptrFloat(f float64) *float64 { return &f }
