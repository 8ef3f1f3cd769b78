package handler

import (
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"memberbase/billing"
	"memberbase/billing/xero"
	C "memberbase/config"
	mid "memberbase/middleware"
	"memberbase/model/store"
	"memberbase/task/invoice_sync"
	U "memberbase/util"
)

// XeroWebhooksHandler terminates vendor webhooks. Non POST and bad
// signatures get 401, unparsable JSON gets 400. Matching events flag
// invoices for update and a sync runs after the response is flushed,
// so the vendor sees the acknowledgment within milliseconds.
func XeroWebhooksHandler(svc billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		webhookID := U.GetScopeByKeyAsString(c, mid.SCOPE_REQ_ID)
		logCtx := log.WithFields(log.Fields{"webhook_id": webhookID})

		if c.Request.Method != http.MethodPost {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Method not allowed."})
			return
		}

		body, err := ioutil.ReadAll(c.Request.Body)
		if err != nil {
			logCtx.WithError(err).Error("Failed to read xero webhook body.")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body."})
			return
		}

		webhookKey := C.GetXeroConf().WebhookKey
		if webhookKey == "" {
			logCtx.WithError(&billing.SettingNotConfiguredError{Setting: "XERO_WEBHOOK_KEY"}).
				Error("Rejecting xero webhook.")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature."})
			return
		}

		if !xero.VerifySignature(body, c.Request.Header.Get(xero.SignatureHeader), webhookKey) {
			logCtx.Warn("Rejecting xero webhook with invalid signature.")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature."})
			return
		}

		var payload xero.WebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			logCtx.WithError(err).Error("Failed to decode xero webhook payload.")
			c.AbortWithError(http.StatusBadRequest, errors.New("INVALID JSON"))
			return
		}

		processed := xero.ProcessWebhookEvents(store.GetStore(), &payload, webhookID)
		if !processed || svc == nil {
			c.JSON(http.StatusOK, "ok")
			return
		}

		if C.IsQueueEnabledForInvoiceSync() {
			if err := billing.EnqueueInvoiceSync(webhookID); err != nil {
				logCtx.WithError(err).Error(
					"Failed to enqueue invoice sync. Falling back to deferred run.")
				mid.RunAfterResponse(c, func() {
					invoice_sync.RunAfterWebhook(store.GetStore(), svc, webhookID)
				})
			}
		} else {
			mid.RunAfterResponse(c, func() {
				invoice_sync.RunAfterWebhook(store.GetStore(), svc, webhookID)
			})
		}
		c.JSON(http.StatusOK, "ok")
	}
}

// InvoiceViewRedirectHandler sends a member to the vendor hosted copy
// of an invoice. Only the owning user or an admin of the owning
// organisation gets the redirect, everyone else sees a 404.
func InvoiceViewRedirectHandler(svc billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := U.GetScopeByKeyAsUint64(c, mid.SCOPE_LOGGED_IN_USER)
		invoiceID := U.ParseUint64(c.Params.ByName("id"))
		if invoiceID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice id."})
			return
		}
		logCtx := log.WithFields(log.Fields{"invoice_id": invoiceID, "user_id": userID})

		invoice, errCode := store.GetStore().GetInvoice(invoiceID)
		if errCode != http.StatusFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Invoice not found."})
			return
		}

		if !canAccessInvoiceAccount(userID, invoice.AccountID) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Invoice not found."})
			return
		}

		if svc == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "No billing service configured."})
			return
		}

		invoiceURL, err := svc.GetInvoiceURL(invoice)
		if err != nil {
			logCtx.WithError(err).Error("Failed to get invoice url from billing service.")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "Billing service unavailable."})
			return
		}
		if invoiceURL == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "No invoice url available."})
			return
		}
		c.Redirect(http.StatusFound, invoiceURL)
	}
}

func canAccessInvoiceAccount(userID, accountID uint64) bool {
	account, errCode := store.GetStore().GetAccount(accountID)
	if errCode != http.StatusFound {
		return false
	}
	if account.UserID != nil && *account.UserID == userID {
		return true
	}
	if account.OrganisationID != nil {
		isAdmin, errCode := store.GetStore().IsOrganisationAdmin(*account.OrganisationID, userID)
		return errCode == http.StatusFound && isAdmin
	}
	return false
}

// ResyncInvoiceHandler lets an admin force a refresh of one invoice
// from the billing provider. The flag is set on the row immediately,
// the sync itself runs after the response.
func ResyncInvoiceHandler(svc billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		invoiceID := U.ParseUint64(c.Params.ByName("id"))
		if invoiceID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice id."})
			return
		}
		reqID := U.GetScopeByKeyAsString(c, mid.SCOPE_REQ_ID)
		logCtx := log.WithFields(log.Fields{"invoice_id": invoiceID, "req_id": reqID})

		errCode := store.GetStore().FlagInvoiceForUpdate(invoiceID)
		if errCode == http.StatusNotFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Invoice not found."})
			return
		}
		if errCode != http.StatusAccepted {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Failed to flag invoice for update."})
			return
		}
		logCtx.Info("Invoice flagged for resync.")

		if svc != nil {
			mid.RunAfterResponse(c, func() {
				invoice_sync.RunAfterWebhook(store.GetStore(), svc, reqID)
			})
		}
		c.JSON(http.StatusOK, gin.H{"status": "accepted"})
	}
}
