package handler

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appevent "github.com/repairshop/backend/internal/application/event"
	appfinance "github.com/repairshop/backend/internal/application/finance"
	"github.com/repairshop/backend/internal/application/reconciliation"
	"github.com/repairshop/backend/internal/infrastructure/event"
	"github.com/repairshop/backend/internal/infrastructure/persistence"
	"github.com/repairshop/backend/internal/interfaces/http/dto"
	"github.com/repairshop/backend/internal/interfaces/http/middleware"
	"github.com/repairshop/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	t0       = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	clientID = testutil.NewTestUUID("client")
	actorID  = testutil.TestActorID()
)

// testAPI serves the handlers over an in-memory database
type testAPI struct {
	db     *gorm.DB
	fx     *testutil.Fixtures
	outbox *event.GormOutboxRepository
	engine *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	logger := zap.NewNop()
	scope := persistence.NewGormTransactionScope(db, nil)

	store := appfinance.NewLocationStore(logger)
	recorder := appfinance.NewMovementRecorder(logger)
	payments := appfinance.NewPaymentLifecycle(store, recorder, logger)
	sync := appfinance.NewStatusSynchronizer(payments, logger)
	outboxRepo := event.NewGormOutboxRepository(db)

	ledger := NewLedgerHandler(appfinance.NewLedgerService(scope, recorder, logger), appfinance.NewLedgerAuditService(scope, logger))
	workflow := NewWorkflowHandler(appfinance.NewReportStatusService(scope, sync, logger), appfinance.NewInvoicePaymentService(scope, payments, logger))
	recon := NewReconciliationHandler(reconciliation.NewEngine(persistence.NewGormReconciliationStore(db), logger))
	outbox := NewOutboxHandler(appevent.NewOutboxService(outboxRepo, logger))

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Actor())
	api := engine.Group("/api/v1")
	api.GET("/locations", ledger.ListLocations)
	api.POST("/locations", ledger.CreateLocation)
	api.GET("/locations/:id", ledger.GetLocation)
	api.PATCH("/locations/:id", ledger.UpdateLocation)
	api.POST("/locations/:id/deposit", ledger.Deposit)
	api.POST("/locations/:id/withdraw", ledger.Withdraw)
	api.GET("/movements", ledger.ListMovements)
	api.POST("/movements/transfer", ledger.Transfer)
	api.GET("/ledger/audit", ledger.AuditBalances)
	api.PATCH("/reports/:id/status", workflow.UpdateReportStatus)
	api.PATCH("/invoices/:id/payment-status", workflow.ChangePaymentStatus)
	api.GET("/reconciliation/analysis", recon.Analyze)
	api.POST("/reconciliation/fix", recon.FixLinking)
	api.GET("/system/outbox/dead", outbox.ListDead)
	api.POST("/system/outbox/dead/retry", outbox.RetryAll)
	api.GET("/system/outbox/stats", outbox.Stats)
	api.GET("/system/outbox/:id", outbox.Entry)
	api.POST("/system/outbox/:id/retry", outbox.Retry)

	return &testAPI{db: db, fx: testutil.NewFixtures(t, db), outbox: outboxRepo, engine: engine}
}

// do sends a request as the test actor; body is JSON-encoded unless it is already a string
func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.Serve(t, a.engine, method, path, body, middleware.HeaderUserID, actorID.String())
}

// meta returns the pagination block of a list response
func meta(t *testing.T, w *httptest.ResponseRecorder) dto.Meta {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	return *resp.Meta
}

func statusPtr(s string) *string { return &s }
