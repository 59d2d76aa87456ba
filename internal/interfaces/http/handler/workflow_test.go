package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/interfaces/http/dto"
	"github.com/repairshop/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowHandler_UpdateReportStatus(t *testing.T) {
	api := newTestAPI(t)
	cash := api.fx.Location("Cash", "", finance.LocationTypeCash, t0)
	report := api.fx.Report(clientID, "SN1", t0, statusPtr("pending"))
	inv := api.fx.Invoice(clientID, "INV-1", invoicing.PaymentStatusPending, &report.ID, 350, 150)

	w := api.do(t, http.MethodPatch, "/api/v1/reports/"+report.ID.String()+"/status", map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeData[ReportStatusResponse](t, w)
	assert.True(t, resp.Changed)
	assert.Equal(t, "pending", resp.PreviousStatus)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 1, resp.PaymentsRecorded)
	require.Len(t, resp.InvoicesUpdated, 1)
	assert.Equal(t, inv.ID, resp.InvoicesUpdated[0].InvoiceID)
	assert.Equal(t, "recorded", resp.InvoicesUpdated[0].Ledger)
	assert.True(t, api.fx.Balance(cash.ID).Equal(decimal.NewFromInt(500)))

	// the alias resolves to the same status
	w = api.do(t, http.MethodPatch, "/api/v1/reports/"+report.ID.String()+"/status", map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, w.Code)
	resp = testutil.DecodeData[ReportStatusResponse](t, w)
	assert.False(t, resp.Changed)
	assert.NotNil(t, resp.InvoicesUnchanged)
	assert.Equal(t, int64(1), api.fx.MovementCount(inv.ID))
}

func TestWorkflowHandler_UpdateReportStatusErrors(t *testing.T) {
	api := newTestAPI(t)
	report := api.fx.Report(clientID, "SN1", t0, nil)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown status", "/api/v1/reports/" + report.ID.String() + "/status", map[string]string{"status": "exploded"},
			http.StatusUnprocessableEntity, dto.ErrCodeInvalidStatus},
		{"missing status", "/api/v1/reports/" + report.ID.String() + "/status", map[string]string{},
			http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown report", "/api/v1/reports/" + uuid.NewString() + "/status", map[string]string{"status": "completed"},
			http.StatusNotFound, dto.ErrCodeReportNotFound},
		{"malformed id", "/api/v1/reports/7/status", map[string]string{"status": "completed"},
			http.StatusBadRequest, dto.ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, testutil.ErrorCode(t, w))
		})
	}
}

func TestWorkflowHandler_ChangePaymentStatus(t *testing.T) {
	api := newTestAPI(t)
	cash := api.fx.Location("Cash", "", finance.LocationTypeCash, t0)
	inv := api.fx.Invoice(clientID, "INV-7", invoicing.PaymentStatusPending, nil, 200)
	path := "/api/v1/invoices/" + inv.ID.String() + "/payment-status"

	w := api.do(t, http.MethodPatch, path, map[string]string{"status": "paid", "method": "cash"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeData[PaymentStatusResponse](t, w)
	assert.Equal(t, "pending", resp.PreviousStatus)
	assert.Equal(t, "paid", resp.Status)
	assert.Equal(t, "recorded", resp.Ledger)
	require.NotNil(t, resp.Movement)
	assert.Equal(t, "payment_received", resp.Movement.MovementType)
	assert.True(t, resp.Movement.Amount.Equal(decimal.NewFromInt(200)))
	assert.True(t, api.fx.Balance(cash.ID).Equal(decimal.NewFromInt(200)))

	w = api.do(t, http.MethodPatch, path, map[string]string{"status": "unpaid"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = testutil.DecodeData[PaymentStatusResponse](t, w)
	assert.Equal(t, "reverted", resp.Ledger)
	assert.True(t, api.fx.Balance(cash.ID).IsZero())
}

func TestWorkflowHandler_ChangePaymentStatusErrors(t *testing.T) {
	api := newTestAPI(t)
	inv := api.fx.Invoice(clientID, "INV-8", invoicing.PaymentStatusPending, nil, 90)
	path := "/api/v1/invoices/" + inv.ID.String() + "/payment-status"

	w := api.do(t, http.MethodPatch, path, map[string]string{"status": "refunded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, testutil.ErrorCode(t, w))

	w = api.do(t, http.MethodPatch, "/api/v1/invoices/"+uuid.NewString()+"/payment-status", map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeInvoiceNotFound, testutil.ErrorCode(t, w))

	// nowhere to put the money
	w = api.do(t, http.MethodPatch, path, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeNoActiveLocation, testutil.ErrorCode(t, w))
}
