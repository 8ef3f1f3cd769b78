package main

import (
	"flag"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"memberbase/billing/provider"
	C "memberbase/config"
	H "memberbase/handler"
	mid "memberbase/middleware"
	"memberbase/model/store"
)

// ./app --env=development --api_domain=localhost:8080 --app_domain=localhost:3000 --api_http_port=8080 --db_host=localhost --db_port=5432 --db_user=memberbase --db_name=memberbase --db_pass=memberbase --billing_provider=mock
func main() {

	env := flag.String("env", "development", "")
	port := flag.Int("api_http_port", 8080, "")

	dbHost := flag.String("db_host", "localhost", "")
	dbPort := flag.Int("db_port", 5432, "")
	dbUser := flag.String("db_user", "memberbase", "")
	dbName := flag.String("db_name", "memberbase", "")
	dbPass := flag.String("db_pass", "memberbase", "")

	queueRedisHost := flag.String("queue_redis_host", "localhost", "")
	queueRedisPort := flag.Int("queue_redis_port", 6379, "")

	apiDomain := flag.String("api_domain", "memberbase-dev.com:8080", "")
	appDomain := flag.String("app_domain", "memberbase-dev.com:3000", "")

	sentryDSN := flag.String("sentry_dsn", "", "Sentry DSN")
	sessionStoreSecret := flag.String("session_store_secret", "", "Secret for the cookie session store")

	billingProvider := flag.String("billing_provider", "none",
		"Billing service implementation, xero, mock or none")
	xeroTenantID := flag.String("xero_tenant_id", "", "Xero organisation tenant id")
	xeroAccountCode := flag.String("xero_account_code", "", "Revenue account for invoice line items")
	xeroBrandingThemeID := flag.String("xero_branding_theme_id", "", "")
	xeroCurrencyCode := flag.String("xero_currency_code", "NZD", "")
	xeroLineAmountTypes := flag.String("xero_line_amount_types", "Inclusive", "")
	xeroInvoiceStatus := flag.String("xero_invoice_status", "", "Status for created invoices, defaults to AUTHORISED")
	invoiceEmailEnabled := flag.Bool("invoice_email_enabled", false,
		"Email invoices through the vendor after creation")
	emailWhitelistRegex := flag.String("email_whitelist_regex", "",
		"Only email invoices to matching owner emails, empty allows all")

	useQueueForInvoiceSync := flag.Bool("use_queue_for_invoice_sync", false,
		"Run webhook triggered invoice syncs on the billing queue instead of after the response")
	invoiceDueInDays := flag.Int("invoice_due_in_days", 14, "")
	membershipFee := flag.String("membership_fee", "100.00", "Annual fee for an individual membership")
	organisationFeePerSeat := flag.String("organisation_fee_per_seat", "250.00",
		"Annual per seat fee for an organisation membership")
	flag.Parse()

	config := &C.Configuration{
		AppName: "app_server",
		Env:     *env,
		Port:    *port,
		DBInfo: C.DBConf{
			Host:     *dbHost,
			Port:     *dbPort,
			User:     *dbUser,
			Name:     *dbName,
			Password: *dbPass,
		},
		QueueRedisHost:     *queueRedisHost,
		QueueRedisPort:     *queueRedisPort,
		APIDomain:          *apiDomain,
		APPDomain:          *appDomain,
		SentryDSN:          *sentryDSN,
		SessionStoreSecret: *sessionStoreSecret,
		BillingProvider:    *billingProvider,
		Xero: C.XeroConf{
			TenantID:            *xeroTenantID,
			AccountCode:         *xeroAccountCode,
			BrandingThemeID:     *xeroBrandingThemeID,
			CurrencyCode:        *xeroCurrencyCode,
			LineAmountTypes:     *xeroLineAmountTypes,
			InvoiceStatus:       *xeroInvoiceStatus,
			InvoiceEmailEnabled: *invoiceEmailEnabled,
			EmailWhitelistRegex: *emailWhitelistRegex,
		},
		UseQueueForInvoiceSync: *useQueueForInvoiceSync,
		InvoiceDueInDays:       *invoiceDueInDays,
		MembershipFee:          *membershipFee,
		OrganisationFeePerSeat: *organisationFeePerSeat,
	}

	// Initialize configs and connections.
	err := C.Init(config)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize.")
		return
	}
	defer C.SafeFlushAllCollectors()

	if C.IsQueueEnabledForInvoiceSync() {
		if err := C.InitQueueClient(config.QueueRedisHost, config.QueueRedisPort); err != nil {
			log.WithError(err).Fatal("Failed to initialize queue client.")
			return
		}
	}

	if !C.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// The billing service is built once and handed down to the handlers.
	// A nil service keeps the app serving with billing paths disabled.
	svc := provider.GetBillingService(store.GetStore())
	if svc == nil {
		log.Info("No billing provider configured.")
	}

	r := gin.New()
	r.Use(mid.AddSecurityHeadersForAppRoutes())
	r.Use(mid.CustomCors())
	r.Use(mid.RequestIdGenerator())
	r.Use(mid.Logger())
	r.Use(mid.Recovery())

	// Initialize routes.
	H.InitAppRoutes(r, svc)
	r.Run(":" + strconv.Itoa(C.GetConfig().Port))
}
