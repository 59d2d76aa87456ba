package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectationsWereMet(t)
}

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)

	for _, table := range []string{"money_locations", "money_movements", "invoices", "invoice_items", "invoice_reports", "reports", "outbox_events"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestFixtures(t *testing.T) {
	db := NewSQLiteDB(t)
	fx := NewFixtures(t, db)
	now := time.Now()

	loc := fx.Location("Cash Drawer", "", finance.LocationTypeCash, now)
	assert.True(t, fx.Balance(loc.ID).IsZero())

	inactive := fx.InactiveLocation("Old Safe", now)
	assert.False(t, inactive.IsActive)

	report := fx.Report(NewTestUUID("client"), "SN-1", now, nil)
	inv := fx.Invoice(NewTestUUID("client"), "INV-1", invoicing.PaymentStatusPending, &report.ID, 300, 200)
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(500)))

	fx.LinkReportToInvoice(report.ID, inv.ID)
	assert.Equal(t, int64(0), fx.MovementCount(inv.ID))
	assert.Equal(t, int64(0), fx.LinkCount())
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("seed"), NewTestUUID("seed"))
	assert.NotEqual(t, NewTestUUID("seed"), NewTestUUID("other"))
	assert.Equal(t, TestActorID(), NewTestUUID("test-actor"))
}

func TestServe(t *testing.T) {
	engine := gin.New()
	engine.POST("/locations", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data":    gin.H{"name": body["name"], "actor": c.GetHeader("X-User-ID")},
		})
	})
	engine.GET("/locations/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "ERR_NOT_FOUND", "message": "location not found"}})
	})

	w := Serve(t, engine, http.MethodPost, "/locations", map[string]string{"name": "Safe"}, "X-User-ID", "admin-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	got := DecodeData[map[string]string](t, w)
	assert.Equal(t, "Safe", got["name"])
	assert.Equal(t, "admin-1", got["actor"])

	w = Serve(t, engine, http.MethodGet, "/locations/missing", nil)
	assert.Equal(t, "ERR_NOT_FOUND", ErrorCode(t, w))
}

func TestTestContext(t *testing.T) {
	tc := NewTestContext(t)
	tc.SetRequestID("req-123")
	tc.SetActorID(TestActorID().String())
	tc.SetHeader("Content-Type", "application/json")

	requestID, _ := tc.Context.Get("request_id")
	actorID, _ := tc.Context.Get("actor_id")
	assert.Equal(t, "req-123", requestID)
	assert.Equal(t, TestActorID().String(), actorID)
	assert.Equal(t, "application/json", tc.Context.Request.Header.Get("Content-Type"))

	tc.Context.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"key": "value"}})
	assert.Equal(t, http.StatusCreated, tc.ResponseCode())
	AssertSuccessResponse(t, tc)
	assert.Equal(t, true, JSONResponse(t, tc)["success"])
}

func TestAssertErrorResponse(t *testing.T) {
	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusConflict, gin.H{"success": false, "error": gin.H{"code": "ERR_CONFLICT"}})

	AssertErrorResponse(t, tc, "ERR_CONFLICT")
}
