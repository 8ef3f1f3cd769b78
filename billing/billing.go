package billing

import (
	"memberbase/model/model"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

const (
	ProviderXero = "xero"
	ProviderMock = "mock"
	ProviderNone = "none"
)

// InvoiceItem is one line on an invoice to be raised.
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitAmount  decimal.Decimal `json:"unit_amount"`
}

// CreateInvoiceRequest describes an invoice to raise for an account.
// At most one of the membership references is set and is carried onto
// the local invoice row.
type CreateInvoiceRequest struct {
	AccountID   uint64        `json:"account_id"`
	Description string        `json:"description"`
	Items       []InvoiceItem `json:"items"`

	MembershipID             *uint64 `json:"membership_id"`
	OrganisationMembershipID *uint64 `json:"organisation_membership_id"`
}

// Service is the capability contract every billing provider
// implements. The xero implementation talks to the vendor, the mock
// returns canned responses for tests and development.
type Service interface {
	ProviderName() string

	// UpdateUserBillingDetails syncs the user's account as a contact
	// on the provider, creating the contact mapping on first use.
	UpdateUserBillingDetails(userID uint64) error
	UpdateOrganisationBillingDetails(organisationID uint64) error

	// CreateInvoice raises the invoice on the provider and persists
	// the local mirror row.
	CreateInvoice(req *CreateInvoiceRequest) (*model.Invoice, error)

	// EmailInvoice asks the provider to email the invoice to the
	// contact. Gated by configuration.
	EmailInvoice(invoice *model.Invoice) error

	// GetInvoiceURL returns the provider-hosted payment URL. Empty
	// when the invoice has no provider id.
	GetInvoiceURL(invoice *model.Invoice) (string, error)

	// UpdateInvoices fetches current provider state for the given
	// provider invoice ids and overwrites the matching local rows
	// through the given transaction, clearing update_needed.
	UpdateInvoices(tx *gorm.DB, billingServiceInvoiceIDs []string) (*model.InvoiceSyncResult, error)
}
