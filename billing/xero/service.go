package xero

import (
	"fmt"
	"net/http"
	"regexp"
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

// Service implements billing.Service against the Xero accounting API.
// Constructed once at process start and passed to the webhook handler,
// sync job and workers.
type Service struct {
	client *Client
	store  M.Model
}

func NewService(store M.Model) *Service {
	return &Service{
		client: NewClient(),
		store:  store,
	}
}

func (s *Service) ProviderName() string {
	return billing.ProviderXero
}

func (s *Service) UpdateUserBillingDetails(userID uint64) error {
	account, errCode := s.store.GetOrCreateUserAccount(userID)
	if errCode != http.StatusCreated && errCode != http.StatusFound {
		return &billing.BillingDetailUpdateError{
			Err: fmt.Errorf("failed to get account for user %d, status %d", userID, errCode)}
	}
	return s.updateAccountBillingDetails(account)
}

func (s *Service) UpdateOrganisationBillingDetails(organisationID uint64) error {
	account, errCode := s.store.GetOrCreateOrganisationAccount(organisationID)
	if errCode != http.StatusCreated && errCode != http.StatusFound {
		return &billing.BillingDetailUpdateError{
			Err: fmt.Errorf("failed to get account for organisation %d, status %d", organisationID, errCode)}
	}
	return s.updateAccountBillingDetails(account)
}

// updateAccountBillingDetails pushes the owner's name and email to the
// vendor contact, creating the contact and its local mapping on first
// use. Contact names carry the account id since the vendor requires
// globally unique names.
func (s *Service) updateAccountBillingDetails(account *model.Account) error {
	logCtx := log.WithFields(log.Fields{"account_id": account.ID})

	details, errCode := s.store.GetAccountBillingDetails(account)
	if errCode != http.StatusFound {
		return &billing.BillingDetailUpdateError{
			Err: fmt.Errorf("failed to get billing details for account %d, status %d", account.ID, errCode)}
	}

	contact := &Contact{
		Name:         fmt.Sprintf("%s (%d)", details.Name, account.ID),
		EmailAddress: details.Email,
	}

	existing, errCode := s.store.GetXeroContactForAccount(account.ID)
	if errCode == http.StatusFound {
		contact.ContactID = existing.ContactID
		if _, err := s.client.UpdateContact(contact); err != nil {
			logCtx.WithError(err).Error("Failed to update contact on xero.")
			return &billing.BillingDetailUpdateError{Err: err}
		}
		return nil
	}
	if errCode != http.StatusNotFound {
		return &billing.BillingDetailUpdateError{
			Err: fmt.Errorf("failed to get contact mapping for account %d, status %d", account.ID, errCode)}
	}

	created, err := s.client.CreateContact(contact)
	if err != nil {
		logCtx.WithError(err).Error("Failed to create contact on xero.")
		return &billing.BillingDetailUpdateError{Err: err}
	}

	if _, errCode := s.store.SaveXeroContact(account.ID, created.ContactID); errCode != http.StatusCreated {
		return &billing.BillingDetailUpdateError{
			Err: fmt.Errorf("failed to save contact mapping for account %d, status %d", account.ID, errCode)}
	}
	return nil
}

type invoiceSettings struct {
	accountCode     string
	currencyCode    string
	lineAmountTypes string
	status          string
	brandingThemeID string
}

func getInvoiceSettings() (*invoiceSettings, error) {
	conf := C.GetXeroConf()
	if conf.AccountCode == "" {
		return nil, &billing.SettingNotConfiguredError{Setting: "XERO_ACCOUNT_CODE"}
	}
	if conf.CurrencyCode == "" {
		return nil, &billing.SettingNotConfiguredError{Setting: "XERO_CURRENCY_CODE"}
	}
	if conf.LineAmountTypes == "" {
		return nil, &billing.SettingNotConfiguredError{Setting: "XERO_LINE_AMOUNT_TYPES"}
	}

	status := conf.InvoiceStatus
	if status == "" {
		status = "AUTHORISED"
	}

	return &invoiceSettings{
		accountCode:     conf.AccountCode,
		currencyCode:    conf.CurrencyCode,
		lineAmountTypes: conf.LineAmountTypes,
		status:          status,
		brandingThemeID: conf.BrandingThemeID,
	}, nil
}

func (s *Service) CreateInvoice(req *billing.CreateInvoiceRequest) (*model.Invoice, error) {
	logCtx := log.WithFields(log.Fields{"account_id": req.AccountID})

	settings, err := getInvoiceSettings()
	if err != nil {
		return nil, err
	}

	contact, errCode := s.store.GetXeroContactForAccount(req.AccountID)
	if errCode != http.StatusFound {
		return nil, &billing.BillingInvoiceError{
			Err: fmt.Errorf("account %d has no billing contact, status %d", req.AccountID, errCode)}
	}

	lineItems := make([]LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		lineItems = append(lineItems, LineItem{
			Description: item.Description,
			Quantity:    float64(quantity),
			UnitAmount:  item.UnitAmount.InexactFloat64(),
			AccountCode: settings.accountCode,
		})
	}

	issueDate := time.Now().UTC()
	dueDate := U.EndOfDay(issueDate.AddDate(0, 0, C.GetInvoiceDueInDays()))

	resp, err := s.client.CreateInvoices([]Invoice{{
		Type:            InvoiceTypeAccRec,
		Status:          settings.status,
		Contact:         &Contact{ContactID: contact.ContactID},
		Reference:       req.Description,
		Date:            &Date{issueDate},
		DueDate:         &Date{dueDate},
		LineItems:       lineItems,
		LineAmountTypes: settings.lineAmountTypes,
		CurrencyCode:    settings.currencyCode,
		BrandingThemeID: settings.brandingThemeID,
	}})
	if err != nil {
		logCtx.WithError(err).Error("Failed to create invoice on xero.")
		return nil, &billing.BillingInvoiceError{Err: err}
	}
	if len(resp.Invoices) == 0 {
		return nil, &billing.BillingInvoiceError{Err: fmt.Errorf("create invoice returned no invoices")}
	}
	created := resp.Invoices[0]

	invoice := &model.Invoice{
		AccountID:                req.AccountID,
		InvoiceNumber:            created.InvoiceNumber,
		BillingServiceInvoiceID:  &created.InvoiceID,
		Description:              req.Description,
		Amount:                   decimal.NewFromFloat(created.Total),
		Paid:                     decimal.NewFromFloat(created.AmountPaid),
		Due:                      decimal.NewFromFloat(created.AmountDue),
		MembershipID:             req.MembershipID,
		OrganisationMembershipID: req.OrganisationMembershipID,
	}
	invoice.IssueDate = issueDate
	invoice.DueDate = dueDate
	if created.Date != nil {
		invoice.IssueDate = created.Date.Time
	}
	if created.DueDate != nil {
		invoice.DueDate = created.DueDate.Time
	}

	if errCode := s.store.CreateInvoice(invoice); errCode != http.StatusCreated {
		return nil, &billing.BillingInvoiceError{
			Err: fmt.Errorf("failed to save invoice %s, status %d", created.InvoiceNumber, errCode)}
	}

	logCtx.WithFields(log.Fields{"invoice_number": invoice.InvoiceNumber,
		"billing_service_invoice_id": created.InvoiceID}).Info("Created invoice on xero.")
	return invoice, nil
}

// EmailInvoice asks the vendor to email the invoice to its contact.
// Disabled unless configured on, and restricted by the optional email
// whitelist.
func (s *Service) EmailInvoice(invoice *model.Invoice) error {
	logCtx := log.WithFields(log.Fields{"invoice_id": invoice.ID})

	if invoice.BillingServiceInvoiceID == nil {
		return fmt.Errorf("invoice %d has no billing service invoice id", invoice.ID)
	}

	conf := C.GetXeroConf()
	if !conf.InvoiceEmailEnabled {
		logCtx.Debug("Invoice email disabled. Skipping.")
		return nil
	}

	if conf.EmailWhitelistRegex != "" {
		account, errCode := s.store.GetAccount(invoice.AccountID)
		if errCode != http.StatusFound {
			return fmt.Errorf("failed to get account %d for invoice email, status %d",
				invoice.AccountID, errCode)
		}
		details, errCode := s.store.GetAccountBillingDetails(account)
		if errCode != http.StatusFound {
			return fmt.Errorf("failed to get billing details for account %d, status %d",
				invoice.AccountID, errCode)
		}

		matched, err := regexp.MatchString(conf.EmailWhitelistRegex, details.Email)
		if err != nil {
			logCtx.WithError(err).Error("Invalid email whitelist regex. Skipping invoice email.")
			return nil
		}
		if !matched {
			logCtx.WithField("email", details.Email).Info("Email not whitelisted. Skipping invoice email.")
			return nil
		}
	}

	return s.client.EmailInvoice(*invoice.BillingServiceInvoiceID)
}

// GetInvoiceURL returns the hosted payment URL, empty when the invoice
// was never created on the vendor.
func (s *Service) GetInvoiceURL(invoice *model.Invoice) (string, error) {
	if invoice.BillingServiceInvoiceID == nil {
		return "", nil
	}
	return s.client.GetOnlineInvoice(*invoice.BillingServiceInvoiceID)
}

// UpdateInvoices fetches current vendor state for the given invoice
// ids in one call and overwrites the matching local rows through tx.
// Rows updated here get update_needed cleared. Invoices the vendor
// returns that have no local row are skipped.
func (s *Service) UpdateInvoices(tx *gorm.DB, billingServiceInvoiceIDs []string) (*model.InvoiceSyncResult, error) {
	result := &model.InvoiceSyncResult{
		InvoiceIDs:     make([]string, 0),
		InvoiceNumbers: make([]string, 0),
		NewlyPaid:      make([]uint64, 0),
	}
	if len(billingServiceInvoiceIDs) == 0 {
		return result, nil
	}

	resp, err := s.client.GetInvoices(billingServiceInvoiceIDs)
	if err != nil {
		return nil, err
	}

	for _, vendorInvoice := range resp.Invoices {
		logCtx := log.WithFields(log.Fields{
			"billing_service_invoice_id": vendorInvoice.InvoiceID})

		var local model.Invoice
		if err := tx.Where("billing_service_invoice_id = ?",
			vendorInvoice.InvoiceID).First(&local).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				logCtx.Debug("No local invoice for vendor invoice. Skipping.")
				continue
			}
			return nil, err
		}

		wasPaid := local.IsPaid()

		updates := map[string]interface{}{
			"amount":        decimal.NewFromFloat(vendorInvoice.Total),
			"paid":          decimal.NewFromFloat(vendorInvoice.AmountPaid),
			"due":           decimal.NewFromFloat(vendorInvoice.AmountDue),
			"update_needed": false,
		}
		if vendorInvoice.Date != nil {
			updates["issue_date"] = vendorInvoice.Date.Time
		}
		if vendorInvoice.DueDate != nil {
			updates["due_date"] = vendorInvoice.DueDate.Time
		}
		if vendorInvoice.FullyPaidOnDate != nil && !vendorInvoice.FullyPaidOnDate.IsZero() {
			updates["paid_date"] = vendorInvoice.FullyPaidOnDate.Time
		} else {
			updates["paid_date"] = nil
		}

		if err := tx.Model(&model.Invoice{}).Where("id = ?", local.ID).
			Updates(updates).Error; err != nil {
			logCtx.WithError(err).Error("Failed to update local invoice.")
			return nil, err
		}

		result.UpdatedCount++
		result.InvoiceIDs = append(result.InvoiceIDs, vendorInvoice.InvoiceID)
		result.InvoiceNumbers = append(result.InvoiceNumbers, vendorInvoice.InvoiceNumber)
		if !wasPaid && updates["paid_date"] != nil {
			result.NewlyPaid = append(result.NewlyPaid, local.ID)
		}
	}

	return result, nil
}
