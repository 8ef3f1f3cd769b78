package xero

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateUnmarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"MsSinceEpoch", `"/Date(1672531200000)/"`,
			time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"MsSinceEpochWithOffset", `"/Date(1672531200000+1300)/"`,
			time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"RFC3339", `"2023-06-15T10:30:00Z"`,
			time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)},
		{"NoZone", `"2023-06-15T10:30:00"`,
			time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)},
		{"DateOnly", `"2023-06-15"`,
			time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tc.in), &d)
			assert.Nil(t, err)
			assert.True(t, tc.want.Equal(d.Time), "got %s", d.Time)
		})
	}

	t.Run("Null", func(t *testing.T) {
		var d Date
		err := json.Unmarshal([]byte(`null`), &d)
		assert.Nil(t, err)
		assert.True(t, d.IsZero())
	})

	t.Run("Unsupported", func(t *testing.T) {
		var d Date
		err := json.Unmarshal([]byte(`"15/06/2023"`), &d)
		assert.NotNil(t, err)
	})
}

func TestDateMarshalJSON(t *testing.T) {
	d := Date{Time: time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)}
	b, err := json.Marshal(d)
	assert.Nil(t, err)
	assert.Equal(t, `"2023-06-15T10:30:00"`, string(b))

	b, err = json.Marshal(Date{})
	assert.Nil(t, err)
	assert.Equal(t, `null`, string(b))
}

func TestInvoiceDatesFromResponse(t *testing.T) {
	// Shape of an accounting API response, ms dates and all.
	body := `{"Invoices":[{"InvoiceID":"inv-1","InvoiceNumber":"INV-0042",
		"Status":"PAID","Date":"/Date(1672531200000+0000)/",
		"DueDate":"/Date(1673740800000+0000)/",
		"FullyPaidOnDate":"/Date(1673136000000+0000)/",
		"AmountDue":0.0,"AmountPaid":115.0,"Total":115.0}]}`

	var resp InvoicesResponse
	err := json.Unmarshal([]byte(body), &resp)
	assert.Nil(t, err)
	assert.Len(t, resp.Invoices, 1)

	invoice := resp.Invoices[0]
	assert.Equal(t, "INV-0042", invoice.InvoiceNumber)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), invoice.Date.Time)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), invoice.DueDate.Time)
	assert.Equal(t, time.Date(2023, 1, 8, 0, 0, 0, 0, time.UTC), invoice.FullyPaidOnDate.Time)
	assert.Equal(t, 115.0, invoice.AmountPaid)
}
