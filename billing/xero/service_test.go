package xero

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"memberbase/billing"
	C "memberbase/config"
	M "memberbase/model"
	"memberbase/model/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeAccountStore struct {
	M.Model
	account *model.Account
	details *model.AccountBillingDetails

	contactID     string
	savedContacts map[uint64]string

	createdInvoice *model.Invoice
}

func newFakeAccountStore() *fakeAccountStore {
	userID := uint64(42)
	return &fakeAccountStore{
		account:       &model.Account{ID: 10, UserID: &userID},
		details:       &model.AccountBillingDetails{Name: "Amy Askew", Email: "amy@example.com"},
		savedContacts: make(map[uint64]string),
	}
}

func (f *fakeAccountStore) GetOrCreateUserAccount(userID uint64) (*model.Account, int) {
	return f.account, http.StatusFound
}

func (f *fakeAccountStore) GetAccount(id uint64) (*model.Account, int) {
	return f.account, http.StatusFound
}

func (f *fakeAccountStore) GetAccountBillingDetails(account *model.Account) (*model.AccountBillingDetails, int) {
	return f.details, http.StatusFound
}

func (f *fakeAccountStore) GetXeroContactForAccount(accountID uint64) (*model.XeroContact, int) {
	if f.contactID == "" {
		return nil, http.StatusNotFound
	}
	return &model.XeroContact{AccountID: accountID, ContactID: f.contactID}, http.StatusFound
}

func (f *fakeAccountStore) SaveXeroContact(accountID uint64, contactID string) (*model.XeroContact, int) {
	f.savedContacts[accountID] = contactID
	return &model.XeroContact{AccountID: accountID, ContactID: contactID}, http.StatusCreated
}

func (f *fakeAccountStore) CreateInvoice(invoice *model.Invoice) int {
	invoice.ID = 1
	f.createdInvoice = invoice
	return http.StatusCreated
}

func setupServiceConf(emailEnabled bool, whitelist string) {
	C.InitConf(&C.Configuration{Env: "development", AppName: "xero_test",
		Xero: C.XeroConf{TenantID: testTenantID,
			ClientID: "test-client-id", ClientSecret: "test-client-secret",
			AccountCode: "200", CurrencyCode: "NZD", LineAmountTypes: "Inclusive",
			InvoiceEmailEnabled: emailEnabled, EmailWhitelistRegex: whitelist}})
}

func testService(server *httptest.Server, store M.Model) *Service {
	return &Service{client: testClient(server), store: store}
}

func TestServiceCreatesContactOnFirstUse(t *testing.T) {
	setupServiceConf(false, "")
	store := newFakeAccountStore()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api.xro/2.0/Contacts", r.URL.Path)

		var req ContactsResponse
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Amy Askew (10)", req.Contacts[0].Name)
		assert.Equal(t, "amy@example.com", req.Contacts[0].EmailAddress)

		writeJSON(w, `{"Contacts":[{"ContactID":"con-99","Name":"Amy Askew (10)"}]}`)
	}))
	defer server.Close()

	err := testService(server, store).UpdateUserBillingDetails(42)
	assert.Nil(t, err)
	assert.Equal(t, "con-99", store.savedContacts[10])
}

func TestServiceUpdatesExistingContact(t *testing.T) {
	setupServiceConf(false, "")
	store := newFakeAccountStore()
	store.contactID = "con-1"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req ContactsResponse
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "con-1", req.Contacts[0].ContactID)

		writeJSON(w, `{"Contacts":[{"ContactID":"con-1"}]}`)
	}))
	defer server.Close()

	err := testService(server, store).UpdateUserBillingDetails(42)
	assert.Nil(t, err)
	// The mapping already existed, nothing to save.
	assert.Len(t, store.savedContacts, 0)
}

func TestServiceCreateInvoice(t *testing.T) {
	setupServiceConf(false, "")
	store := newFakeAccountStore()
	store.contactID = "con-1"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api.xro/2.0/Invoices", r.URL.Path)

		var req InvoicesResponse
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Invoices, 1) {
			sent := req.Invoices[0]
			assert.Equal(t, InvoiceTypeAccRec, sent.Type)
			assert.Equal(t, "AUTHORISED", sent.Status)
			assert.Equal(t, "con-1", sent.Contact.ContactID)
			assert.Equal(t, "Membership 2023", sent.Reference)
			assert.Equal(t, "NZD", sent.CurrencyCode)
			assert.Equal(t, "Inclusive", sent.LineAmountTypes)
			if assert.Len(t, sent.LineItems, 1) {
				assert.Equal(t, 1.0, sent.LineItems[0].Quantity)
				assert.Equal(t, 100.0, sent.LineItems[0].UnitAmount)
				assert.Equal(t, "200", sent.LineItems[0].AccountCode)
			}
		}

		writeJSON(w, `{"Invoices":[{"InvoiceID":"inv-9","InvoiceNumber":"INV-0042",
			"Status":"AUTHORISED","Date":"/Date(1672531200000)/","DueDate":"/Date(1673740800000)/",
			"Total":115.0,"AmountPaid":0.0,"AmountDue":115.0}]}`)
	}))
	defer server.Close()

	membershipID := uint64(7)
	invoice, err := testService(server, store).CreateInvoice(&billing.CreateInvoiceRequest{
		AccountID:   10,
		Description: "Membership 2023",
		Items: []billing.InvoiceItem{
			{Description: "Annual membership 2023", Quantity: 0,
				UnitAmount: decimal.RequireFromString("100.00")},
		},
		MembershipID: &membershipID,
	})
	assert.Nil(t, err)

	// The local row mirrors the vendor response, not the request.
	assert.Equal(t, "INV-0042", invoice.InvoiceNumber)
	assert.Equal(t, "inv-9", *invoice.BillingServiceInvoiceID)
	assert.True(t, decimal.NewFromInt(115).Equal(invoice.Amount), "got %s", invoice.Amount)
	assert.True(t, decimal.NewFromInt(115).Equal(invoice.Due))
	assert.True(t, decimal.Zero.Equal(invoice.Paid))
	assert.Equal(t, 2023, invoice.IssueDate.Year())
	assert.Equal(t, &membershipID, invoice.MembershipID)
	assert.Equal(t, invoice, store.createdInvoice)
}

func TestServiceCreateInvoiceRequiresSettings(t *testing.T) {
	C.InitConf(&C.Configuration{Env: "development", AppName: "xero_test",
		Xero: C.XeroConf{TenantID: testTenantID}})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made without invoice settings")
	}))
	defer server.Close()

	_, err := testService(server, newFakeAccountStore()).CreateInvoice(
		&billing.CreateInvoiceRequest{AccountID: 10})

	var settingErr *billing.SettingNotConfiguredError
	assert.True(t, errors.As(err, &settingErr))
	assert.Equal(t, "XERO_ACCOUNT_CODE", settingErr.Setting)
}

func TestServiceEmailInvoice(t *testing.T) {
	billingServiceInvoiceID := "inv-9"
	invoice := &model.Invoice{ID: 1, AccountID: 10,
		BillingServiceInvoiceID: &billingServiceInvoiceID}

	t.Run("Disabled", func(t *testing.T) {
		setupServiceConf(false, "")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no email request expected while disabled")
		}))
		defer server.Close()

		err := testService(server, newFakeAccountStore()).EmailInvoice(invoice)
		assert.Nil(t, err)
	})

	t.Run("WhitelistedEmail", func(t *testing.T) {
		setupServiceConf(true, `@example\.com$`)
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			assert.Equal(t, "/api.xro/2.0/Invoices/inv-9/Email", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		err := testService(server, newFakeAccountStore()).EmailInvoice(invoice)
		assert.Nil(t, err)
		assert.Equal(t, 1, requests)
	})

	t.Run("EmailNotWhitelisted", func(t *testing.T) {
		setupServiceConf(true, `@memberbase\.nz$`)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no email request expected for non whitelisted address")
		}))
		defer server.Close()

		err := testService(server, newFakeAccountStore()).EmailInvoice(invoice)
		assert.Nil(t, err)
	})

	t.Run("NoVendorInvoice", func(t *testing.T) {
		setupServiceConf(true, "")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for an invoice without a vendor id")
		}))
		defer server.Close()

		err := testService(server, newFakeAccountStore()).EmailInvoice(&model.Invoice{ID: 2})
		assert.NotNil(t, err)
	})
}

func TestServiceGetInvoiceURL(t *testing.T) {
	setupServiceConf(false, "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"OnlineInvoices":[{"OnlineInvoiceUrl":"https://in.xero.com/abc"}]}`)
	}))
	defer server.Close()
	svc := testService(server, newFakeAccountStore())

	invoiceURL, err := svc.GetInvoiceURL(&model.Invoice{ID: 1})
	assert.Nil(t, err)
	assert.Equal(t, "", invoiceURL)

	billingServiceInvoiceID := "inv-9"
	invoiceURL, err = svc.GetInvoiceURL(&model.Invoice{ID: 1,
		BillingServiceInvoiceID: &billingServiceInvoiceID})
	assert.Nil(t, err)
	assert.Equal(t, "https://in.xero.com/abc", invoiceURL)
}
