package config

import (
	"fmt"
	"strings"

	"github.com/RichardKnop/machinery/v1"
	machineryconf "github.com/RichardKnop/machinery/v1/config"
	"github.com/evalphobia/logrus_sentry"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	DEVELOPMENT = "development"
	STAGING     = "staging"
	PRODUCTION  = "production"
)

type DBConf struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// XeroConf holds the Xero app and invoicing settings. Credentials are
// read from the environment with the XERO_ prefix, invoicing defaults
// come from flags. Fields are validated at point of use, a missing one
// surfaces as billing.SettingNotConfiguredError.
type XeroConf struct {
	ClientID     string `envconfig:"CLIENT_ID" json:"-"`
	ClientSecret string `envconfig:"CLIENT_SECRET" json:"-"`
	TenantID     string `envconfig:"TENANT_ID" json:"tenant_id"`
	WebhookKey   string `envconfig:"WEBHOOK_KEY" json:"-"`

	AccountCode     string `envconfig:"ACCOUNT_CODE" json:"account_code"`
	BrandingThemeID string `envconfig:"BRANDING_THEME_ID" json:"branding_theme_id"`
	CurrencyCode    string `json:"currency_code"`
	LineAmountTypes string `json:"line_amount_types"`
	InvoiceStatus   string `json:"invoice_status"`

	// InvoiceEmailEnabled gates the email-invoice call on the vendor.
	InvoiceEmailEnabled bool `json:"invoice_email_enabled"`

	// EmailWhitelistRegex restricts which owner emails get invoice
	// emails. Empty allows all.
	EmailWhitelistRegex string `json:"email_whitelist_regex"`
}

type Configuration struct {
	AppName string `json:"app_name"`
	Env     string `json:"env"`
	Port    int    `json:"port"`

	DBInfo DBConf `json:"db"`

	QueueRedisHost string `json:"queue_redis_host"`
	QueueRedisPort int    `json:"queue_redis_port"`

	APIDomain string `json:"api_domain"`
	APPDomain string `json:"app_domain"`

	SentryDSN          string `json:"-"`
	SessionStoreSecret string `json:"-"`

	// BillingProvider selects the billing service implementation,
	// "xero", "mock" or "none".
	BillingProvider string `json:"billing_provider"`

	Xero XeroConf `json:"xero"`

	// UseQueueForInvoiceSync moves invoice refreshes triggered by
	// webhooks onto the billing queue instead of running them after
	// the webhook response.
	UseQueueForInvoiceSync bool `json:"use_queue_for_invoice_sync"`

	InvoiceDueInDays int `json:"invoice_due_in_days"`

	MembershipFee          string `json:"membership_fee"`
	OrganisationFeePerSeat string `json:"organisation_fee_per_seat"`
}

type Services struct {
	Db           *gorm.DB
	QueueClient  *machinery.Server
	SessionStore sessions.Store
}

var configuration *Configuration = nil
var services *Services = &Services{}
var sentryHook *logrus_sentry.SentryHook = nil

func initLogging() {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	if IsDevelopment() {
		log.SetLevel(log.DebugLevel)
	}
}

func initSentryLogging(dsn, env, appName string) {
	if dsn == "" {
		return
	}

	hook, err := logrus_sentry.NewAsyncSentryHook(dsn, []log.Level{
		log.PanicLevel,
		log.FatalLevel,
		log.ErrorLevel,
	})
	if err != nil {
		log.WithError(err).Error("Failed to initialize sentry hook.")
		return
	}

	hook.SetEnvironment(env)
	hook.SetRelease(appName)
	hook.StacktraceConfiguration.Enable = true

	log.AddHook(hook)
	sentryHook = hook
}

// SafeFlushAllCollectors - To be deferred on mains, waits for queued
// sentry events before exit.
func SafeFlushAllCollectors() {
	if sentryHook != nil {
		sentryHook.Flush()
	}
}

func initDB(dbConf DBConf) error {
	db, err := gorm.Open("postgres", fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s password=%s sslmode=disable",
		dbConf.Host,
		dbConf.Port,
		dbConf.User,
		dbConf.Name,
		dbConf.Password))
	if err != nil {
		log.WithFields(log.Fields{"err": err}).Error("Failed Db Initialization")
		return err
	}

	// Connection Pooling and Logging.
	db.DB().SetMaxIdleConns(10)
	db.DB().SetMaxOpenConns(100)
	db.LogMode(IsDevelopment())

	services.Db = db
	log.Info("Db Service initialized")
	return nil
}

func initSessionStore(secret string) {
	if secret == "" {
		secret = "memberbase-dev-session-secret"
	}
	services.SessionStore = cookie.NewStore([]byte(secret))
}

// InitConf sets the configuration and logging without connecting to
// any service. Xero credentials are overlaid from the environment.
func InitConf(config *Configuration) {
	configuration = config
	initLogging()
	initSentryLogging(config.SentryDSN, config.Env, config.AppName)

	if err := envconfig.Process("xero", &configuration.Xero); err != nil {
		log.WithError(err).Error("Failed to read xero settings from environment.")
	}
}

// Init initializes configuration and connections.
func Init(config *Configuration) error {
	InitConf(config)

	if err := initDB(config.DBInfo); err != nil {
		return err
	}
	initSessionStore(config.SessionStoreSecret)

	return nil
}

// InitDB connects only the database. Used by scripts that need no
// other service.
func InitDB(config Configuration) error {
	return initDB(config.DBInfo)
}

// InitQueueClient connects the machinery client to the queue redis.
// Used both by producers and by workers.
func InitQueueClient(host string, port int) error {
	broker := fmt.Sprintf("redis://%s:%d", host, port)

	queueClient, err := machinery.NewServer(&machineryconf.Config{
		Broker:          broker,
		DefaultQueue:    "billing_queue",
		ResultBackend:   broker,
		ResultsExpireIn: 3600,
	})
	if err != nil {
		log.WithError(err).Error("Failed queue client initialization.")
		return err
	}

	services.QueueClient = queueClient
	log.Info("Queue client initialized.")
	return nil
}

func GetConfig() *Configuration {
	return configuration
}

func GetServices() *Services {
	return services
}

func GetXeroConf() *XeroConf {
	return &configuration.Xero
}

func GetAPIDomain() string {
	return configuration.APIDomain
}

func GetAPPDomain() string {
	return configuration.APPDomain
}

func GetInvoiceDueInDays() int {
	if configuration.InvoiceDueInDays <= 0 {
		return 14
	}
	return configuration.InvoiceDueInDays
}

func IsQueueEnabledForInvoiceSync() bool {
	return configuration.UseQueueForInvoiceSync
}

// GetMembershipFee returns the annual fee charged for an individual
// membership. Falls back to the default when unset or unparsable.
func GetMembershipFee() decimal.Decimal {
	fee, err := decimal.NewFromString(configuration.MembershipFee)
	if err != nil || fee.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(100)
	}
	return fee
}

// GetOrganisationFeePerSeat returns the per seat annual fee for an
// organisation membership.
func GetOrganisationFeePerSeat() decimal.Decimal {
	fee, err := decimal.NewFromString(configuration.OrganisationFeePerSeat)
	if err != nil || fee.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(250)
	}
	return fee
}

func GetBillingProvider() string {
	if configuration.BillingProvider == "" {
		return "none"
	}
	return configuration.BillingProvider
}

func IsDevelopment() bool {
	return (strings.Compare(configuration.Env, DEVELOPMENT) == 0)
}

func IsProduction() bool {
	return (strings.Compare(configuration.Env, PRODUCTION) == 0)
}
