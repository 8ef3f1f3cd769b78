package main

import (
	"encoding/json"
	"errors"
	"flag"
	"time"

	"github.com/RichardKnop/machinery/v1/tasks"
	log "github.com/sirupsen/logrus"

	"memberbase/billing"
	"memberbase/billing/provider"
	C "memberbase/config"
	"memberbase/model/store"
	"memberbase/task/invoice_sync"
	U "memberbase/util"
)

const workerName = "billing_invoice_sync_worker"

// ProcessInvoiceUpdates runs one invoice sync batch for a webhook id.
// A rate limited vendor with a known retry-after re-queues the task for
// that moment, any other failure is returned so the queue's own backoff
// retries it.
func ProcessInvoiceUpdates(webhookID string) (string, error) {
	logCtx := log.WithFields(log.Fields{"webhook_id": webhookID, "worker": workerName})

	svc := provider.GetBillingService(store.GetStore())
	if svc == nil {
		logCtx.Error("No billing provider configured on invoice sync worker.")
		return "", errors.New("no billing provider configured")
	}

	result, err := invoice_sync.FetchUpdatedInvoiceDetails(store.GetStore(), svc, webhookID)
	if err != nil {
		var rateLimitErr *billing.RateLimitError
		if errors.As(err, &rateLimitErr) && rateLimitErr.RetryAfter > 0 {
			logCtx.WithError(err).Warn("Rate limited on invoice sync. Retrying after vendor wait.")
			return "", tasks.NewErrRetryTaskLater("RETRY_INVOICE_SYNC_RATE_LIMITED",
				time.Duration(rateLimitErr.RetryAfter)*time.Second)
		}

		logCtx.WithError(err).Error("Failed to process invoice updates on billing queue. Retry.")
		return "", err
	}

	responseBytes, _ := json.Marshal(result)
	logCtx.WithField("response", string(responseBytes)).Info("Processed invoice updates.")
	return string(responseBytes), nil
}

func main() {
	env := flag.String("env", "development", "")

	dbHost := flag.String("db_host", "localhost", "")
	dbPort := flag.Int("db_port", 5432, "")
	dbUser := flag.String("db_user", "memberbase", "")
	dbName := flag.String("db_name", "memberbase", "")
	dbPass := flag.String("db_pass", "memberbase", "")

	queueRedisHost := flag.String("queue_redis_host", "localhost", "")
	queueRedisPort := flag.Int("queue_redis_port", 6379, "")

	sentryDSN := flag.String("sentry_dsn", "", "Sentry DSN")

	billingProvider := flag.String("billing_provider", "xero",
		"Billing service implementation, xero, mock or none")
	xeroTenantID := flag.String("xero_tenant_id", "", "Xero organisation tenant id")

	workerConcurrency := flag.Int("worker_concurrency", 1, "")
	flag.Parse()

	defer U.NotifyOnPanic(workerName, *env)

	config := &C.Configuration{
		AppName: workerName,
		Env:     *env,
		DBInfo: C.DBConf{
			Host:     *dbHost,
			Port:     *dbPort,
			User:     *dbUser,
			Name:     *dbName,
			Password: *dbPass,
		},
		QueueRedisHost:  *queueRedisHost,
		QueueRedisPort:  *queueRedisPort,
		SentryDSN:       *sentryDSN,
		BillingProvider: *billingProvider,
		Xero: C.XeroConf{
			TenantID: *xeroTenantID,
		},
	}

	err := C.Init(config)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize.")
		return
	}
	defer C.SafeFlushAllCollectors()

	err = C.InitQueueClient(config.QueueRedisHost, config.QueueRedisPort)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize queue client.")
		return
	}
	queueClient := C.GetServices().QueueClient

	// Register tasks on queueClient.
	err = queueClient.RegisterTask(billing.ProcessInvoiceUpdatesTask, ProcessInvoiceUpdates)
	if err != nil {
		log.WithError(err).WithField("worker", workerName).
			Fatal("Failed to register tasks on queue client in billing worker.")
	}

	worker := queueClient.NewCustomQueueWorker(workerName, *workerConcurrency, billing.InvoiceSyncQueue)
	worker.Launch()
}
