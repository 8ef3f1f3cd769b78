package xero

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"memberbase/billing"
	C "memberbase/config"

	"github.com/stretchr/testify/assert"
)

func setupClientConf() {
	C.InitConf(&C.Configuration{Env: "development", AppName: "xero_test",
		Xero: C.XeroConf{TenantID: testTenantID,
			ClientID: "test-client-id", ClientSecret: "test-client-secret"}})
}

// testClient points at the test server with a token already held and
// backoff sleeps disabled.
func testClient(server *httptest.Server) *Client {
	policy := billing.DefaultRetryPolicy()
	policy.Sleep = func(time.Duration) {}
	return &Client{
		httpClient:     server.Client(),
		policy:         policy,
		apiBaseURL:     server.URL + "/api.xro/2.0",
		connectionsURL: server.URL + "/connections",
		tokenURL:       server.URL + "/connect/token",
		token:          "test-token",
	}
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func TestClientSendsExpectedHeaders(t *testing.T) {
	setupClientConf()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api.xro/2.0/Invoices", r.URL.Path)
		assert.Equal(t, "inv-1,inv-2", r.URL.Query().Get("IDs"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, testTenantID, r.Header.Get("Xero-tenant-id"))
		writeJSON(w, `{"Invoices":[]}`)
	}))
	defer server.Close()

	resp, err := testClient(server).GetInvoices([]string{"inv-1", "inv-2"})
	assert.Nil(t, err)
	assert.Equal(t, 1, requests)
	assert.Len(t, resp.Invoices, 0)
}

func TestClientConnectionsWithoutTenantHeader(t *testing.T) {
	setupClientConf()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/connections", r.URL.Path)
		assert.Equal(t, "", r.Header.Get("Xero-tenant-id"))
		writeJSON(w, `[{"id":"conn-1","tenantId":"tenant-1","tenantType":"ORGANISATION","tenantName":"Demo Org"}]`)
	}))
	defer server.Close()

	connections, err := testClient(server).GetConnections()
	assert.Nil(t, err)
	assert.Len(t, connections, 1)
	assert.Equal(t, "tenant-1", connections[0].TenantID)
	assert.Equal(t, "Demo Org", connections[0].TenantName)
}

func TestClientRequiresTenantConfigured(t *testing.T) {
	C.InitConf(&C.Configuration{Env: "development", AppName: "xero_test",
		Xero: C.XeroConf{ClientID: "test-client-id", ClientSecret: "test-client-secret"}})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the API without a tenant id")
	}))
	defer server.Close()

	_, err := testClient(server).GetInvoices([]string{"inv-1"})

	var settingErr *billing.SettingNotConfiguredError
	assert.True(t, errors.As(err, &settingErr))
	assert.Equal(t, "XERO_TENANT_ID", settingErr.Setting)
}

func TestClientMissingCredentials(t *testing.T) {
	C.InitConf(&C.Configuration{Env: "development", AppName: "xero_test"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the API without credentials")
	}))
	defer server.Close()

	client := testClient(server)
	client.token = ""
	_, err := client.GetInvoices([]string{"inv-1"})

	var settingErr *billing.SettingNotConfiguredError
	assert.True(t, errors.As(err, &settingErr))
	assert.Equal(t, "XERO_CLIENT_ID", settingErr.Setting)
}

func TestClientRateLimitFailsFast(t *testing.T) {
	setupClientConf()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Retry-After", "42")
		w.Header().Set("X-Rate-Limit-Problem", "minute")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server).GetInvoices([]string{"inv-1"})

	assert.Equal(t, 1, requests)
	var rateLimitErr *billing.RateLimitError
	assert.True(t, errors.As(err, &rateLimitErr))
	assert.Equal(t, 42, rateLimitErr.RetryAfter)
	assert.Equal(t, "minute", rateLimitErr.LimitType)
}

func TestClientRetriesTransientStatuses(t *testing.T) {
	setupClientConf()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, `{"Invoices":[{"InvoiceID":"inv-1","Status":"AUTHORISED"}]}`)
	}))
	defer server.Close()

	resp, err := testClient(server).GetInvoices([]string{"inv-1"})
	assert.Nil(t, err)
	assert.Equal(t, 3, requests)
	assert.Len(t, resp.Invoices, 1)
}

func TestClientReacquiresTokenAfterUnauthorized(t *testing.T) {
	setupClientConf()

	tokenRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/connect/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		writeJSON(w, `{"access_token":"fresh-token","token_type":"bearer","expires_in":1800}`)
	})
	mux.HandleFunc("/api.xro/2.0/Invoices", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, `{"Invoices":[]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := testClient(server)
	client.token = "stale-token"

	_, err := client.GetInvoices([]string{"inv-1"})
	var apiErr *billing.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// The stale token was dropped, the next call runs the credentials
	// flow and succeeds.
	_, err = client.GetInvoices([]string{"inv-1"})
	assert.Nil(t, err)
	assert.Equal(t, 1, tokenRequests)
}

func TestCreateContact(t *testing.T) {
	setupClientConf()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api.xro/2.0/Contacts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ContactsResponse
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Contacts, 1)
		assert.Equal(t, "Amy Askew (42)", req.Contacts[0].Name)

		writeJSON(w, `{"Contacts":[{"ContactID":"con-1","Name":"Amy Askew (42)"}]}`)
	}))
	defer server.Close()

	contact, err := testClient(server).CreateContact(&Contact{
		Name: "Amy Askew (42)", EmailAddress: "amy@example.com"})
	assert.Nil(t, err)
	assert.Equal(t, "con-1", contact.ContactID)
}

func TestCreateContactEmptyResponse(t *testing.T) {
	setupClientConf()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"Contacts":[]}`)
	}))
	defer server.Close()

	_, err := testClient(server).CreateContact(&Contact{Name: "Amy Askew (42)"})
	assert.NotNil(t, err)
}

func TestGetOnlineInvoice(t *testing.T) {
	setupClientConf()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api.xro/2.0/Invoices/inv-1/OnlineInvoice", r.URL.Path)
		writeJSON(w, `{"OnlineInvoices":[{"OnlineInvoiceUrl":"https://in.xero.com/abc"}]}`)
	}))
	defer server.Close()

	invoiceURL, err := testClient(server).GetOnlineInvoice("inv-1")
	assert.Nil(t, err)
	assert.Equal(t, "https://in.xero.com/abc", invoiceURL)
}

func TestEmailInvoice(t *testing.T) {
	setupClientConf()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api.xro/2.0/Invoices/inv-1/Email", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := testClient(server).EmailInvoice("inv-1")
	assert.Nil(t, err)
	assert.Equal(t, 1, requests)
}
