package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceSyncBatchSize caps the number of stale invoices refreshed from
// the billing provider in one sync run.
const InvoiceSyncBatchSize = 30

type Invoice struct {
	ID        uint64 `gorm:"primary_key:true;" json:"id"`
	AccountID uint64 `gorm:"not null;" json:"account_id"`

	InvoiceNumber string `gorm:"type:varchar(50);not null;unique_index" json:"invoice_number"`

	// BillingServiceInvoiceID is the invoice identifier on the billing
	// provider. Nil until the invoice has been created there.
	BillingServiceInvoiceID *string `gorm:"type:varchar(100);unique_index" json:"billing_service_invoice_id"`

	Description string `gorm:"type:varchar(255)" json:"description"`

	IssueDate time.Time  `json:"issue_date"`
	DueDate   time.Time  `json:"due_date"`
	PaidDate  *time.Time `json:"paid_date"`

	Amount decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	Paid   decimal.Decimal `gorm:"type:decimal(10,2)" json:"paid"`
	Due    decimal.Decimal `gorm:"type:decimal(10,2)" json:"due"`

	// UpdateNeeded marks the invoice stale. Set when the provider
	// reports a change through a webhook, cleared by the sync job.
	UpdateNeeded bool `gorm:"default:false" json:"update_needed"`

	MembershipID             *uint64 `json:"membership_id"`
	OrganisationMembershipID *uint64 `json:"organisation_membership_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Invoice) IsPaid() bool {
	return i.PaidDate != nil
}

// InvoiceSyncResult summarises one run of the invoice sync job.
type InvoiceSyncResult struct {
	UpdatedCount   int      `json:"updated_count"`
	InvoiceIDs     []string `json:"invoice_ids"`
	InvoiceNumbers []string `json:"invoice_numbers"`

	// NewlyPaid holds the primary keys of invoices whose paid date was
	// first observed on this run.
	NewlyPaid []uint64 `json:"newly_paid"`

	QueryTimeMs float64 `json:"query_time_ms"`
	APITimeMs   float64 `json:"api_time_ms"`
	TotalTimeMs float64 `json:"total_time_ms"`
}

// XeroMutex exists so concurrent Xero jobs have a dedicated row to take
// an advisory lock on. A single row with ID 1 is seeded at migration.
type XeroMutex struct {
	ID        uint64    `gorm:"primary_key:true;" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
