package xero

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	InvoiceTypeAccRec = "ACCREC"

	EventCategoryInvoice = "INVOICE"
	EventCategoryContact = "CONTACT"
	EventTypeUpdate      = "UPDATE"
	EventTypeCreate      = "CREATE"
)

// Date handles the legacy .NET date encoding /Date(1539389385000+0000)/
// that the accounting API returns alongside ISO 8601 strings.
type Date struct {
	time.Time
}

var msDateRegex = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}

	if m := msDateRegex.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ms date %q: %v", s, err)
		}
		d.Time = time.Unix(0, ms*int64(time.Millisecond)).UTC()
		return nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}

	return fmt.Errorf("unsupported date format %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Time.UTC().Format("2006-01-02T15:04:05") + `"`), nil
}

type Contact struct {
	ContactID    string `json:"ContactID,omitempty"`
	Name         string `json:"Name,omitempty"`
	EmailAddress string `json:"EmailAddress,omitempty"`
}

type ContactsResponse struct {
	Contacts []Contact `json:"Contacts"`
}

type LineItem struct {
	Description string  `json:"Description,omitempty"`
	Quantity    float64 `json:"Quantity,omitempty"`
	UnitAmount  float64 `json:"UnitAmount,omitempty"`
	AccountCode string  `json:"AccountCode,omitempty"`
	LineAmount  float64 `json:"LineAmount,omitempty"`
}

type Invoice struct {
	Type          string   `json:"Type,omitempty"`
	InvoiceID     string   `json:"InvoiceID,omitempty"`
	InvoiceNumber string   `json:"InvoiceNumber,omitempty"`
	Reference     string   `json:"Reference,omitempty"`
	Status        string   `json:"Status,omitempty"`
	Contact       *Contact `json:"Contact,omitempty"`

	Date            *Date `json:"Date,omitempty"`
	DueDate         *Date `json:"DueDate,omitempty"`
	FullyPaidOnDate *Date `json:"FullyPaidOnDate,omitempty"`

	LineItems       []LineItem `json:"LineItems,omitempty"`
	LineAmountTypes string     `json:"LineAmountTypes,omitempty"`
	CurrencyCode    string     `json:"CurrencyCode,omitempty"`
	BrandingThemeID string     `json:"BrandingThemeID,omitempty"`

	SubTotal   float64 `json:"SubTotal,omitempty"`
	TotalTax   float64 `json:"TotalTax,omitempty"`
	Total      float64 `json:"Total,omitempty"`
	AmountDue  float64 `json:"AmountDue,omitempty"`
	AmountPaid float64 `json:"AmountPaid,omitempty"`
}

type InvoicesResponse struct {
	Invoices []Invoice `json:"Invoices"`
}

type OnlineInvoice struct {
	OnlineInvoiceURL string `json:"OnlineInvoiceUrl"`
}

type OnlineInvoicesResponse struct {
	OnlineInvoices []OnlineInvoice `json:"OnlineInvoices"`
}

// Connection is one org the app credentials are connected to. The
// connections endpoint uses lower camel case unlike the accounting
// endpoints.
type Connection struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	TenantType string `json:"tenantType"`
	TenantName string `json:"tenantName"`
}

type WebhookEvent struct {
	ResourceURL   string `json:"resourceUrl"`
	ResourceID    string `json:"resourceId"`
	EventDateUTC  string `json:"eventDateUtc"`
	EventType     string `json:"eventType"`
	EventCategory string `json:"eventCategory"`
	TenantID      string `json:"tenantId"`
	TenantType    string `json:"tenantType"`
}

type WebhookPayload struct {
	Events             []WebhookEvent `json:"events"`
	FirstEventSequence int64          `json:"firstEventSequence"`
	LastEventSequence  int64          `json:"lastEventSequence"`
	Entropy            string         `json:"entropy"`
}
