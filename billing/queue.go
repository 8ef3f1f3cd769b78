package billing

import (
	"errors"

	C "memberbase/config"
	U "memberbase/util"

	log "github.com/sirupsen/logrus"
)

const ProcessInvoiceUpdatesTask = "process_invoice_updates"
const InvoiceSyncQueue = "billing_invoice_sync_queue"

// The worker retries failed syncs with its own fibonacci backoff.
const invoiceSyncTaskRetryCount = 5

// EnqueueInvoiceSync schedules an async invoice refresh on the billing
// queue. The webhook id ties worker logs back to the request that
// triggered the sync.
func EnqueueInvoiceSync(webhookID string) error {
	queueClient := C.GetServices().QueueClient
	if queueClient == nil {
		return errors.New("queue client not initialized")
	}

	task := U.CreateTaskSignatureForQueue(ProcessInvoiceUpdatesTask,
		InvoiceSyncQueue, invoiceSyncTaskRetryCount, webhookID)

	_, err := queueClient.SendTask(task)
	if err != nil {
		log.WithError(err).WithField("webhook_id", webhookID).
			Error("Failed to enqueue invoice sync task.")
		return err
	}

	log.WithFields(log.Fields{"webhook_id": webhookID,
		"task_uuid": task.UUID}).Info("Enqueued invoice sync task.")
	return nil
}
