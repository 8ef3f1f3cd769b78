package xero

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"

	C "memberbase/config"
	M "memberbase/model"

	log "github.com/sirupsen/logrus"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw webhook
// body under the shared signing key.
const SignatureHeader = "x-xero-signature"

// VerifySignature reports whether signature matches the base64
// HMAC-SHA256 of body under key. A missing header arrives as the
// empty string and never matches.
func VerifySignature(body []byte, signature, key string) bool {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ProcessWebhookEvents flags the local invoices named by INVOICE
// UPDATE events for the configured tenant as update_needed. Events for
// other categories, types or tenants are counted and skipped. Unknown
// resource ids are expected and not errors. Returns whether at least
// one invoice update event was seen, which drives the deferred sync.
func ProcessWebhookEvents(store M.Model, payload *WebhookPayload, webhookID string) bool {
	logCtx := log.WithFields(log.Fields{"webhook_id": webhookID})

	tenantID := C.GetXeroConf().TenantID

	processed := false
	skipped := 0
	for _, event := range payload.Events {
		if event.EventCategory != EventCategoryInvoice ||
			event.EventType != EventTypeUpdate || event.TenantID != tenantID {
			skipped++
			continue
		}

		processed = true

		errCode := store.MarkInvoiceUpdateNeeded(event.ResourceID)
		if errCode == http.StatusNotFound {
			logCtx.WithField("resource_id", event.ResourceID).
				Debug("No local invoice for webhook event. Skipping.")
		} else if errCode != http.StatusAccepted {
			logCtx.WithFields(log.Fields{"resource_id": event.ResourceID,
				"err_code": errCode}).Error("Failed to flag invoice for update.")
		}
	}

	if skipped > 0 {
		logCtx.WithFields(log.Fields{"skipped": skipped,
			"total": len(payload.Events)}).Info("Skipped webhook events without invoice updates.")
	}

	return processed
}
