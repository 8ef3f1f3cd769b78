package model

import (
	"memberbase/billing"
	"memberbase/model/model"
)

// Model - Interface of all methods to be implemented by the stores.
type Model interface {
	// user
	GetUser(id uint64) (*model.User, int)
	GetUserByEmail(email string) (*model.User, int)

	// organisation
	GetOrganisation(id uint64) (*model.Organisation, int)
	IsOrganisationAdmin(organisationID, userID uint64) (bool, int)

	// account
	GetAccount(id uint64) (*model.Account, int)
	GetOrCreateUserAccount(userID uint64) (*model.Account, int)
	GetOrCreateOrganisationAccount(organisationID uint64) (*model.Account, int)
	GetAccountBillingDetails(account *model.Account) (*model.AccountBillingDetails, int)

	// xero_contact
	GetXeroContactForAccount(accountID uint64) (*model.XeroContact, int)
	SaveXeroContact(accountID uint64, contactID string) (*model.XeroContact, int)

	// invoice
	CreateInvoice(invoice *model.Invoice) int
	GetInvoice(id uint64) (*model.Invoice, int)
	GetInvoiceByInvoiceNumber(invoiceNumber string) (*model.Invoice, int)
	GetInvoiceByBillingServiceInvoiceID(billingServiceInvoiceID string) (*model.Invoice, int)
	MarkInvoiceUpdateNeeded(billingServiceInvoiceID string) int
	FlagInvoiceForUpdate(id uint64) int
	SyncInvoiceUpdates(svc billing.Service, limit int) (*model.InvoiceSyncResult, error)

	// membership
	GetMembership(id uint64) (*model.Membership, int)
	CreateMembership(membership *model.Membership) int
	GetOrganisationMembership(id uint64) (*model.OrganisationMembership, int)
	CreateOrganisationMembership(membership *model.OrganisationMembership) int
	ApproveMembershipsForInvoice(invoice *model.Invoice) int
}
