package invoice_sync

import (
	"errors"
	"net/http"
	"testing"

	"memberbase/billing"
	M "memberbase/model"
	"memberbase/model/model"

	"github.com/stretchr/testify/assert"
)

type fakeSyncStore struct {
	M.Model
	result *model.InvoiceSyncResult
	err    error
	limit  int

	invoices map[uint64]*model.Invoice
	approved []uint64
}

func (f *fakeSyncStore) SyncInvoiceUpdates(svc billing.Service, limit int) (*model.InvoiceSyncResult, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSyncStore) GetInvoice(id uint64) (*model.Invoice, int) {
	if invoice, ok := f.invoices[id]; ok {
		return invoice, http.StatusFound
	}
	return nil, http.StatusNotFound
}

func (f *fakeSyncStore) ApproveMembershipsForInvoice(invoice *model.Invoice) int {
	f.approved = append(f.approved, invoice.ID)
	return http.StatusAccepted
}

func TestFetchUpdatedInvoiceDetailsApprovesNewlyPaid(t *testing.T) {
	store := &fakeSyncStore{
		result: &model.InvoiceSyncResult{
			UpdatedCount:   3,
			InvoiceIDs:     []string{"x-7", "x-8", "x-9"},
			InvoiceNumbers: []string{"INV-0007", "INV-0008", "INV-0009"},
			NewlyPaid:      []uint64{7, 9},
		},
		invoices: map[uint64]*model.Invoice{
			7: {ID: 7},
			9: {ID: 9},
		},
	}

	result, err := FetchUpdatedInvoiceDetails(store, nil, "wh-1")
	assert.Nil(t, err)
	assert.Equal(t, model.InvoiceSyncBatchSize, store.limit)
	assert.Equal(t, 3, result.UpdatedCount)
	assert.Equal(t, []uint64{7, 9}, store.approved)
}

func TestFetchUpdatedInvoiceDetailsNoUpdates(t *testing.T) {
	store := &fakeSyncStore{
		result: &model.InvoiceSyncResult{
			InvoiceIDs:     []string{},
			InvoiceNumbers: []string{},
			NewlyPaid:      []uint64{},
		},
	}

	result, err := FetchUpdatedInvoiceDetails(store, nil, "")
	assert.Nil(t, err)
	assert.Equal(t, 0, result.UpdatedCount)
	assert.Len(t, store.approved, 0)
}

func TestFetchUpdatedInvoiceDetailsPropagatesError(t *testing.T) {
	store := &fakeSyncStore{err: errors.New("lock wait timeout")}

	result, err := FetchUpdatedInvoiceDetails(store, nil, "wh-2")
	assert.Nil(t, result)
	assert.NotNil(t, err)
}

func TestFetchUpdatedInvoiceDetailsSkipsMissingInvoice(t *testing.T) {
	// A newly paid id that cannot be loaded back is logged and skipped,
	// approvals for the rest still happen.
	store := &fakeSyncStore{
		result: &model.InvoiceSyncResult{
			UpdatedCount: 2,
			NewlyPaid:    []uint64{7, 9},
		},
		invoices: map[uint64]*model.Invoice{9: {ID: 9}},
	}

	_, err := FetchUpdatedInvoiceDetails(store, nil, "wh-3")
	assert.Nil(t, err)
	assert.Equal(t, []uint64{9}, store.approved)
}

func TestRunAfterWebhookSwallowsErrors(t *testing.T) {
	store := &fakeSyncStore{err: errors.New("connection refused")}
	assert.NotPanics(t, func() {
		RunAfterWebhook(store, nil, "wh-4")
	})
}
