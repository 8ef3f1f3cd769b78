package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGetMembershipFee(t *testing.T) {
	cases := []struct {
		name string
		fee  string
		want string
	}{
		{"Unset", "", "100"},
		{"Configured", "150.50", "150.5"},
		{"Unparsable", "a lot", "100"},
		{"Zero", "0", "100"},
		{"Negative", "-5", "100"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			InitConf(&Configuration{Env: DEVELOPMENT, MembershipFee: tc.fee})
			want := decimal.RequireFromString(tc.want)
			assert.True(t, want.Equal(GetMembershipFee()),
				"want %s got %s", tc.want, GetMembershipFee())
		})
	}
}

func TestGetOrganisationFeePerSeat(t *testing.T) {
	InitConf(&Configuration{Env: DEVELOPMENT})
	assert.True(t, decimal.NewFromInt(250).Equal(GetOrganisationFeePerSeat()))

	InitConf(&Configuration{Env: DEVELOPMENT, OrganisationFeePerSeat: "199.99"})
	assert.True(t, decimal.RequireFromString("199.99").Equal(GetOrganisationFeePerSeat()))
}

func TestGetBillingProvider(t *testing.T) {
	InitConf(&Configuration{Env: DEVELOPMENT})
	assert.Equal(t, "none", GetBillingProvider())

	InitConf(&Configuration{Env: DEVELOPMENT, BillingProvider: "xero"})
	assert.Equal(t, "xero", GetBillingProvider())
}

func TestGetInvoiceDueInDays(t *testing.T) {
	InitConf(&Configuration{Env: DEVELOPMENT})
	assert.Equal(t, 14, GetInvoiceDueInDays())

	InitConf(&Configuration{Env: DEVELOPMENT, InvoiceDueInDays: 30})
	assert.Equal(t, 30, GetInvoiceDueInDays())
}

func TestXeroConfFromEnvironment(t *testing.T) {
	t.Setenv("XERO_CLIENT_ID", "id-from-env")
	t.Setenv("XERO_WEBHOOK_KEY", "key-from-env")

	InitConf(&Configuration{Env: DEVELOPMENT,
		Xero: XeroConf{TenantID: "tenant-from-flag"}})

	conf := GetXeroConf()
	assert.Equal(t, "id-from-env", conf.ClientID)
	assert.Equal(t, "key-from-env", conf.WebhookKey)
	// Values passed in stay when the environment does not override.
	assert.Equal(t, "tenant-from-flag", conf.TenantID)
}

func TestEnvironment(t *testing.T) {
	InitConf(&Configuration{Env: DEVELOPMENT})
	assert.True(t, IsDevelopment())
	assert.False(t, IsProduction())

	InitConf(&Configuration{Env: PRODUCTION})
	assert.False(t, IsDevelopment())
	assert.True(t, IsProduction())
}
