package xero

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"memberbase/billing"
	C "memberbase/config"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultAPIBaseURL     = "https://api.xero.com/api.xro/2.0"
	defaultConnectionsURL = "https://api.xero.com/connections"
	defaultTokenURL       = "https://identity.xero.com/connect/token"

	maxErrorBodyBytes = 512
)

// Client issues raw requests against the accounting API. Every
// operation runs under the rate limit guard and transient retry
// policy. The access token is acquired lazily on first use and
// reacquired after the API rejects it.
type Client struct {
	httpClient *http.Client
	policy     *billing.RetryPolicy

	apiBaseURL     string
	connectionsURL string
	tokenURL       string

	tokenMu sync.Mutex
	token   string
}

func NewClient() *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		policy:         billing.DefaultRetryPolicy(),
		apiBaseURL:     defaultAPIBaseURL,
		connectionsURL: defaultConnectionsURL,
		tokenURL:       defaultTokenURL,
	}
}

// getAuthenticationToken returns the cached access token, running the
// client credentials flow when none is held. No expiry tracking, the
// token is dropped when a call comes back 401.
func (c *Client) getAuthenticationToken() (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	conf := C.GetXeroConf()
	if conf.ClientID == "" {
		return "", &billing.SettingNotConfiguredError{Setting: "XERO_CLIENT_ID"}
	}
	if conf.ClientSecret == "" {
		return "", &billing.SettingNotConfiguredError{Setting: "XERO_CLIENT_SECRET"}
	}

	cc := clientcredentials.Config{
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		TokenURL:     c.tokenURL,
		Scopes:       []string{"accounting.transactions", "accounting.contacts"},
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
	token, err := cc.Token(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get authentication token")
	}

	c.token = token.AccessToken
	return c.token, nil
}

func (c *Client) clearToken() {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = ""
}

// do runs one request against the API and decodes the JSON response
// into out. Non-2xx responses come back as *billing.APIError with the
// rate limit headers captured.
func (c *Client) do(method, requestURL string, withTenant bool, body interface{}, out interface{}) error {
	token, err := c.getAuthenticationToken()
	if err != nil {
		return err
	}

	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, requestURL, reqBody)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withTenant {
		conf := C.GetXeroConf()
		if conf.TenantID == "" {
			return &billing.SettingNotConfiguredError{Setting: "XERO_TENANT_ID"}
		}
		req.Header.Set("Xero-tenant-id", conf.TenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request to billing provider")
	}
	defer resp.Body.Close()

	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response from billing provider")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.clearToken()
		}
		return apiErrorFromResponse(resp, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrapf(err, "failed to decode response from %s", requestURL)
		}
	}
	return nil
}

func apiErrorFromResponse(resp *http.Response, body []byte) *billing.APIError {
	apiErr := &billing.APIError{StatusCode: resp.StatusCode}

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil {
			apiErr.RetryAfter = secs
		}
	}
	apiErr.LimitType = resp.Header.Get("X-Rate-Limit-Problem")

	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	apiErr.Body = string(body)
	return apiErr
}

// CreateContact adds a contact. PUT creates without matching on name,
// so duplicate names fail instead of silently merging.
func (c *Client) CreateContact(contact *Contact) (*Contact, error) {
	var resp ContactsResponse
	err := c.policy.Guarded("create_contact", func() error {
		return c.do(http.MethodPut, c.apiBaseURL+"/Contacts", true,
			&ContactsResponse{Contacts: []Contact{*contact}}, &resp)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Contacts) == 0 {
		return nil, errors.New("create contact returned no contacts")
	}
	return &resp.Contacts[0], nil
}

// UpdateContact updates an existing contact by its contact id.
func (c *Client) UpdateContact(contact *Contact) (*Contact, error) {
	var resp ContactsResponse
	err := c.policy.Guarded("update_contact", func() error {
		return c.do(http.MethodPost, c.apiBaseURL+"/Contacts", true,
			&ContactsResponse{Contacts: []Contact{*contact}}, &resp)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Contacts) == 0 {
		return nil, errors.New("update contact returned no contacts")
	}
	return &resp.Contacts[0], nil
}

// CreateInvoices raises the given invoices and returns them with the
// vendor assigned ids, numbers and totals.
func (c *Client) CreateInvoices(invoices []Invoice) (*InvoicesResponse, error) {
	var resp InvoicesResponse
	err := c.policy.Guarded("create_invoices", func() error {
		return c.do(http.MethodPut, c.apiBaseURL+"/Invoices", true,
			&InvoicesResponse{Invoices: invoices}, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetInvoices fetches current state for the given invoice ids in one
// call.
func (c *Client) GetInvoices(invoiceIDs []string) (*InvoicesResponse, error) {
	query := url.Values{}
	query.Set("IDs", strings.Join(invoiceIDs, ","))

	var resp InvoicesResponse
	err := c.policy.Guarded("get_invoices", func() error {
		return c.do(http.MethodGet, c.apiBaseURL+"/Invoices?"+query.Encode(), true, nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOnlineInvoice returns the hosted payment URL for an invoice.
func (c *Client) GetOnlineInvoice(invoiceID string) (string, error) {
	var resp OnlineInvoicesResponse
	err := c.policy.Guarded("get_online_invoice", func() error {
		return c.do(http.MethodGet,
			c.apiBaseURL+"/Invoices/"+url.PathEscape(invoiceID)+"/OnlineInvoice", true, nil, &resp)
	})
	if err != nil {
		return "", err
	}
	if len(resp.OnlineInvoices) == 0 {
		return "", errors.Errorf("no online invoice returned for invoice %s", invoiceID)
	}
	return resp.OnlineInvoices[0].OnlineInvoiceURL, nil
}

// EmailInvoice asks the vendor to email the invoice to its contact.
func (c *Client) EmailInvoice(invoiceID string) error {
	return c.policy.Guarded("email_invoice", func() error {
		return c.do(http.MethodPost,
			c.apiBaseURL+"/Invoices/"+url.PathEscape(invoiceID)+"/Email", true, struct{}{}, nil)
	})
}

// GetConnections lists the organisations the app credentials are
// connected to. Used to discover the tenant id at setup time.
func (c *Client) GetConnections() ([]Connection, error) {
	var connections []Connection
	err := c.policy.Guarded("get_connections", func() error {
		return c.do(http.MethodGet, c.connectionsURL, false, nil, &connections)
	})
	if err != nil {
		return nil, err
	}
	return connections, nil
}
