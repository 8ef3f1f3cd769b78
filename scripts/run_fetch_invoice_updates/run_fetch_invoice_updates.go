package main

// Runs one invoice sync batch against the configured billing provider.
// Example usage on Terminal.
// go run run_fetch_invoice_updates.go --env=development --billing_provider=xero --xero_tenant_id=<tenant_id>

import (
	"flag"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"memberbase/billing"
	"memberbase/billing/provider"
	C "memberbase/config"
	"memberbase/model/store"
	"memberbase/task/invoice_sync"
	"memberbase/util"
)

func main() {
	env := flag.String("env", C.DEVELOPMENT, "")
	dbHost := flag.String("db_host", "localhost", "")
	dbPort := flag.Int("db_port", 5432, "")
	dbUser := flag.String("db_user", "memberbase", "")
	dbName := flag.String("db_name", "memberbase", "")
	dbPass := flag.String("db_pass", "memberbase", "")

	sentryDSN := flag.String("sentry_dsn", "", "Sentry DSN")

	billingProvider := flag.String("billing_provider", billing.ProviderXero,
		"Billing service implementation, xero, mock or none")
	xeroTenantID := flag.String("xero_tenant_id", "", "Xero organisation tenant id")

	flag.Parse()

	defer util.NotifyOnPanic("Task#FetchInvoiceUpdates", *env)

	config := &C.Configuration{
		AppName: "fetch_invoice_updates",
		Env:     *env,
		DBInfo: C.DBConf{
			Host:     *dbHost,
			Port:     *dbPort,
			User:     *dbUser,
			Name:     *dbName,
			Password: *dbPass,
		},
		SentryDSN:       *sentryDSN,
		BillingProvider: *billingProvider,
		Xero: C.XeroConf{
			TenantID: *xeroTenantID,
		},
	}

	C.InitConf(config)
	defer C.SafeFlushAllCollectors()

	err := C.InitDB(*config)
	if err != nil {
		log.WithError(err).Error("Failed to initialize db in fetch invoice updates.")
		os.Exit(1)
	}

	if C.GetBillingProvider() != billing.ProviderXero {
		fmt.Printf("Nothing to fetch for billing provider %s.\n", C.GetBillingProvider())
		return
	}

	svc := provider.GetBillingService(store.GetStore())
	result, err := invoice_sync.FetchUpdatedInvoiceDetails(store.GetStore(), svc, "")
	if err != nil {
		log.WithError(err).Error("Failed to fetch invoice updates.")
		os.Exit(1)
	}

	if result.UpdatedCount == 0 {
		fmt.Println("no invoices needed updating")
		return
	}
	fmt.Printf("updated %d invoices: %s\n", result.UpdatedCount,
		strings.Join(result.InvoiceNumbers, ", "))
}
