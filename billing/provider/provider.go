package provider

import (
	"memberbase/billing"
	"memberbase/billing/mock"
	"memberbase/billing/xero"
	C "memberbase/config"
	M "memberbase/model"
)

// GetBillingService returns the billing service implementation picked
// by configuration, nil when the provider is none. Constructed once at
// startup and passed down explicitly.
func GetBillingService(store M.Model) billing.Service {
	switch C.GetBillingProvider() {
	case billing.ProviderXero:
		return xero.NewService(store)
	case billing.ProviderMock:
		return mock.NewService(store)
	}
	return nil
}
