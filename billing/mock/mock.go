package mock

import (
	"fmt"
	"net/http"
	"time"

	"memberbase/billing"
	C "memberbase/config"
	M "memberbase/model"
	"memberbase/model/model"
	U "memberbase/util"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultContactID     = "mock-contact-id"
	DefaultInvoiceID     = "mock-invoice-id"
	DefaultInvoiceNumber = "MOCK-0001"
	DefaultInvoiceURL    = "https://in.xero.com/mock-invoice"
)

// Service is the deterministic billing.Service used by tests and
// development environments. No network access, canned identifiers,
// local rows maintained like the real provider would.
type Service struct {
	store M.Model

	ContactID     string
	InvoiceID     string
	InvoiceNumber string
	InvoiceURL    string
}

func NewService(store M.Model) *Service {
	return &Service{
		store:         store,
		ContactID:     DefaultContactID,
		InvoiceID:     DefaultInvoiceID,
		InvoiceNumber: DefaultInvoiceNumber,
		InvoiceURL:    DefaultInvoiceURL,
	}
}

func (s *Service) ProviderName() string {
	return billing.ProviderMock
}

func (s *Service) UpdateUserBillingDetails(userID uint64) error {
	account, errCode := s.store.GetOrCreateUserAccount(userID)
	if errCode != http.StatusCreated && errCode != http.StatusFound {
		return &billing.BillingDetailUpdateError{
			Err: fmt.Errorf("failed to get account for user %d, status %d", userID, errCode)}
	}
	return s.saveContactMapping(account.ID)
}

func (s *Service) UpdateOrganisationBillingDetails(organisationID uint64) error {
	account, errCode := s.store.GetOrCreateOrganisationAccount(organisationID)
	if errCode != http.StatusCreated && errCode != http.StatusFound {
		return &billing.BillingDetailUpdateError{
			Err: fmt.Errorf("failed to get account for organisation %d, status %d", organisationID, errCode)}
	}
	return s.saveContactMapping(account.ID)
}

func (s *Service) saveContactMapping(accountID uint64) error {
	_, errCode := s.store.GetXeroContactForAccount(accountID)
	if errCode == http.StatusFound {
		return nil
	}

	if _, errCode := s.store.SaveXeroContact(accountID, s.ContactID); errCode != http.StatusCreated {
		return &billing.BillingDetailUpdateError{
			Err: fmt.Errorf("failed to save contact mapping for account %d, status %d", accountID, errCode)}
	}
	return nil
}

func (s *Service) CreateInvoice(req *billing.CreateInvoiceRequest) (*model.Invoice, error) {
	if _, errCode := s.store.GetXeroContactForAccount(req.AccountID); errCode != http.StatusFound {
		return nil, &billing.BillingInvoiceError{
			Err: fmt.Errorf("account %d has no billing contact, status %d", req.AccountID, errCode)}
	}

	amount := decimal.Zero
	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		amount = amount.Add(item.UnitAmount.Mul(decimal.NewFromInt(int64(quantity))))
	}

	billingServiceInvoiceID := s.InvoiceID
	issueDate := time.Now().UTC()

	invoice := &model.Invoice{
		AccountID:                req.AccountID,
		InvoiceNumber:            s.InvoiceNumber,
		BillingServiceInvoiceID:  &billingServiceInvoiceID,
		Description:              req.Description,
		IssueDate:                issueDate,
		DueDate:                  U.EndOfDay(issueDate.AddDate(0, 0, C.GetInvoiceDueInDays())),
		Amount:                   amount,
		Paid:                     decimal.Zero,
		Due:                      amount,
		MembershipID:             req.MembershipID,
		OrganisationMembershipID: req.OrganisationMembershipID,
	}

	if errCode := s.store.CreateInvoice(invoice); errCode != http.StatusCreated {
		return nil, &billing.BillingInvoiceError{
			Err: fmt.Errorf("failed to save invoice %s, status %d", s.InvoiceNumber, errCode)}
	}
	return invoice, nil
}

func (s *Service) EmailInvoice(invoice *model.Invoice) error {
	log.WithField("invoice_id", invoice.ID).Debug("Mock invoice email. Skipping.")
	return nil
}

func (s *Service) GetInvoiceURL(invoice *model.Invoice) (string, error) {
	if invoice.BillingServiceInvoiceID == nil {
		return "", nil
	}
	return s.InvoiceURL, nil
}

// UpdateInvoices clears update_needed on the matching local rows
// without touching amounts or dates.
func (s *Service) UpdateInvoices(tx *gorm.DB, billingServiceInvoiceIDs []string) (*model.InvoiceSyncResult, error) {
	result := &model.InvoiceSyncResult{
		InvoiceIDs:     make([]string, 0),
		InvoiceNumbers: make([]string, 0),
		NewlyPaid:      make([]uint64, 0),
	}

	for _, billingServiceInvoiceID := range billingServiceInvoiceIDs {
		var local model.Invoice
		if err := tx.Where("billing_service_invoice_id = ?",
			billingServiceInvoiceID).First(&local).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				continue
			}
			return nil, err
		}

		if err := tx.Model(&model.Invoice{}).Where("id = ?", local.ID).
			Update("update_needed", false).Error; err != nil {
			return nil, err
		}

		result.UpdatedCount++
		result.InvoiceIDs = append(result.InvoiceIDs, billingServiceInvoiceID)
		result.InvoiceNumbers = append(result.InvoiceNumbers, local.InvoiceNumber)
	}

	return result, nil
}
