package invoice_sync

import (
	"net/http"

	"memberbase/billing"
	M "memberbase/model"
	"memberbase/model/model"

	log "github.com/sirupsen/logrus"
)

// FetchUpdatedInvoiceDetails runs one batch sync of stale invoices
// from the billing provider, then approves memberships for invoices
// first observed paid on this run. Errors propagate, the CLI and the
// queue worker both act on them. The webhook id ties logs back to the
// request that triggered the sync and is empty for scheduled runs.
func FetchUpdatedInvoiceDetails(store M.Model, svc billing.Service,
	webhookID string) (*model.InvoiceSyncResult, error) {

	logCtx := log.WithFields(log.Fields{"webhook_id": webhookID})

	result, err := store.SyncInvoiceUpdates(svc, model.InvoiceSyncBatchSize)
	if err != nil {
		return nil, err
	}

	for _, invoiceID := range result.NewlyPaid {
		invoice, errCode := store.GetInvoice(invoiceID)
		if errCode != http.StatusFound {
			logCtx.WithFields(log.Fields{"invoice_id": invoiceID, "err_code": errCode}).
				Error("Failed to get newly paid invoice for membership approval.")
			continue
		}

		errCode = store.ApproveMembershipsForInvoice(invoice)
		if errCode != http.StatusAccepted && errCode != http.StatusOK {
			logCtx.WithFields(log.Fields{"invoice_id": invoiceID, "err_code": errCode}).
				Error("Failed to approve memberships for paid invoice.")
		}
	}

	if result.UpdatedCount > 0 {
		logCtx.WithFields(log.Fields{"updated_count": result.UpdatedCount,
			"invoice_numbers": result.InvoiceNumbers,
			"total_time_ms":   result.TotalTimeMs}).Info("Fetched updated invoice details.")
	} else {
		logCtx.Info("No invoices needed updating.")
	}

	return result, nil
}

// RunAfterWebhook is the swallowing variant used by the deferred
// callback once the webhook response is already on the wire and nobody
// can act on a failure. The flags stay set, so the next run retries.
func RunAfterWebhook(store M.Model, svc billing.Service, webhookID string) {
	if _, err := FetchUpdatedInvoiceDetails(store, svc, webhookID); err != nil {
		log.WithError(err).WithField("webhook_id", webhookID).
			Error("Invoice sync after webhook failed.")
	}
}
