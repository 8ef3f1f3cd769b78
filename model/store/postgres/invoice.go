package postgres

import (
	"errors"
	"net/http"
	"time"

	"memberbase/billing"
	C "memberbase/config"
	"memberbase/model/model"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
)

func (pg *Postgres) CreateInvoice(invoice *model.Invoice) int {
	if invoice == nil || invoice.AccountID == 0 || invoice.InvoiceNumber == "" {
		return http.StatusBadRequest
	}
	db := C.GetServices().Db

	if err := db.Create(invoice).Error; err != nil {
		log.WithError(err).WithField("invoice_number", invoice.InvoiceNumber).
			Error("Failed to create invoice.")
		return http.StatusInternalServerError
	}
	return http.StatusCreated
}

func (pg *Postgres) GetInvoice(id uint64) (*model.Invoice, int) {
	if id == 0 {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var invoice model.Invoice
	if err := db.Where("id = ?", id).First(&invoice).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}
		log.WithError(err).WithField("id", id).Error("Failed to get invoice.")
		return nil, http.StatusInternalServerError
	}
	return &invoice, http.StatusFound
}

func (pg *Postgres) GetInvoiceByInvoiceNumber(invoiceNumber string) (*model.Invoice, int) {
	if invoiceNumber == "" {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var invoice model.Invoice
	if err := db.Where("invoice_number = ?", invoiceNumber).First(&invoice).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}
		log.WithError(err).WithField("invoice_number", invoiceNumber).
			Error("Failed to get invoice by invoice number.")
		return nil, http.StatusInternalServerError
	}
	return &invoice, http.StatusFound
}

func (pg *Postgres) GetInvoiceByBillingServiceInvoiceID(billingServiceInvoiceID string) (*model.Invoice, int) {
	if billingServiceInvoiceID == "" {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var invoice model.Invoice
	if err := db.Where("billing_service_invoice_id = ?",
		billingServiceInvoiceID).First(&invoice).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}
		log.WithError(err).WithField("billing_service_invoice_id", billingServiceInvoiceID).
			Error("Failed to get invoice by billing service invoice id.")
		return nil, http.StatusInternalServerError
	}
	return &invoice, http.StatusFound
}

// MarkInvoiceUpdateNeeded flags the invoice with the given provider id
// as stale. A missing row is a no-op, webhook events routinely name
// invoices this system never raised.
func (pg *Postgres) MarkInvoiceUpdateNeeded(billingServiceInvoiceID string) int {
	if billingServiceInvoiceID == "" {
		return http.StatusBadRequest
	}
	db := C.GetServices().Db

	update := db.Model(&model.Invoice{}).
		Where("billing_service_invoice_id = ?", billingServiceInvoiceID).
		Update("update_needed", true)
	if update.Error != nil {
		log.WithError(update.Error).WithField("billing_service_invoice_id",
			billingServiceInvoiceID).Error("Failed to mark invoice update needed.")
		return http.StatusInternalServerError
	}
	if update.RowsAffected == 0 {
		return http.StatusNotFound
	}
	return http.StatusAccepted
}

// FlagInvoiceForUpdate is the manual admin variant keyed by the local
// invoice id.
func (pg *Postgres) FlagInvoiceForUpdate(id uint64) int {
	if id == 0 {
		return http.StatusBadRequest
	}
	db := C.GetServices().Db

	update := db.Model(&model.Invoice{}).Where("id = ?", id).
		Update("update_needed", true)
	if update.Error != nil {
		log.WithError(update.Error).WithField("id", id).
			Error("Failed to flag invoice for update.")
		return http.StatusInternalServerError
	}
	if update.RowsAffected == 0 {
		return http.StatusNotFound
	}
	return http.StatusAccepted
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// SyncInvoiceUpdates refreshes stale invoices from the billing
// provider inside one transaction. The batch is selected with a row
// lock so concurrent runs never double fetch the same invoices, and is
// capped at model.InvoiceSyncBatchSize. With nothing flagged it
// returns a zero count result without calling the provider. Provider
// errors roll the transaction back and propagate, leaving the flags
// set for the next run.
func (pg *Postgres) SyncInvoiceUpdates(svc billing.Service, limit int) (*model.InvoiceSyncResult, error) {
	if svc == nil {
		return nil, errors.New("no billing service to sync invoices from")
	}
	if limit <= 0 || limit > model.InvoiceSyncBatchSize {
		limit = model.InvoiceSyncBatchSize
	}

	logCtx := log.WithFields(log.Fields{"provider": svc.ProviderName()})
	totalStart := time.Now()
	db := C.GetServices().Db

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	queryStart := time.Now()
	var invoices []model.Invoice
	err := tx.Set("gorm:query_option", "FOR NO KEY UPDATE").
		Where("update_needed = ? AND billing_service_invoice_id IS NOT NULL", true).
		Order("id").Limit(limit).Find(&invoices).Error
	if err != nil {
		tx.Rollback()
		logCtx.WithError(err).Error("Failed to select invoices needing update.")
		return nil, err
	}
	queryTime := time.Since(queryStart)

	if len(invoices) == 0 {
		tx.Rollback()
		return &model.InvoiceSyncResult{
			InvoiceIDs:     make([]string, 0),
			InvoiceNumbers: make([]string, 0),
			NewlyPaid:      make([]uint64, 0),
			QueryTimeMs:    durationMs(queryTime),
			TotalTimeMs:    durationMs(time.Since(totalStart)),
		}, nil
	}

	billingServiceInvoiceIDs := make([]string, 0, len(invoices))
	for i := range invoices {
		billingServiceInvoiceIDs = append(billingServiceInvoiceIDs,
			*invoices[i].BillingServiceInvoiceID)
	}

	apiStart := time.Now()
	result, err := svc.UpdateInvoices(tx, billingServiceInvoiceIDs)
	if err != nil {
		tx.Rollback()
		logCtx.WithError(err).WithField("count", len(billingServiceInvoiceIDs)).
			Error("Failed to update invoices from billing provider.")
		return nil, err
	}
	apiTime := time.Since(apiStart)

	if err := tx.Commit().Error; err != nil {
		logCtx.WithError(err).Error("Failed to commit invoice sync.")
		return nil, err
	}

	result.QueryTimeMs = durationMs(queryTime)
	result.APITimeMs = durationMs(apiTime)
	result.TotalTimeMs = durationMs(time.Since(totalStart))

	logCtx.WithFields(log.Fields{"updated_count": result.UpdatedCount,
		"invoice_numbers": result.InvoiceNumbers}).Info("Synced invoice updates from billing provider.")
	return result, nil
}
