package router

import (
	"github.com/gin-gonic/gin"
	"github.com/repairshop/backend/internal/interfaces/http/handler"
)

// Handlers are the handlers served by the API. All of them are required.
type Handlers struct {
	Ledger         *handler.LedgerHandler
	Workflow       *handler.WorkflowHandler
	Reconciliation *handler.ReconciliationHandler
	Outbox         *handler.OutboxHandler
	System         *handler.SystemHandler
}

// Mount registers /health at the root and the API groups under /api/{version}. It returns
// the number of API routes.
func Mount(engine *gin.Engine, h Handlers, opts ...Option) int {
	engine.GET("/health", h.System.Health)
	return Register(engine, Groups(h), opts...)
}

// Groups is the route table of the API
func Groups(h Handlers) []Group {
	return []Group{
		{Prefix: "/locations", Routes: []Route{
			get("", h.Ledger.ListLocations),
			post("", h.Ledger.CreateLocation),
			get("/:id", h.Ledger.GetLocation),
			patch("/:id", h.Ledger.UpdateLocation),
			post("/:id/deposit", h.Ledger.Deposit),
			post("/:id/withdraw", h.Ledger.Withdraw),
		}},
		{Prefix: "/movements", Routes: []Route{
			get("", h.Ledger.ListMovements),
			post("/transfer", h.Ledger.Transfer),
		}},
		{Prefix: "/ledger", Routes: []Route{
			get("/audit", h.Ledger.AuditBalances),
		}},
		{Prefix: "/reports", Routes: []Route{
			patch("/:id/status", h.Workflow.UpdateReportStatus),
		}},
		{Prefix: "/invoices", Routes: []Route{
			patch("/:id/payment-status", h.Workflow.ChangePaymentStatus),
		}},
		{Prefix: "/reconciliation", Routes: []Route{
			get("/analysis", h.Reconciliation.Analyze),
			post("/fix", h.Reconciliation.FixLinking),
		}},
		{Prefix: "/system", Routes: []Route{
			get("/info", h.System.GetSystemInfo),
			get("/ping", h.System.Ping),
			get("/outbox/dead", h.Outbox.ListDead),
			post("/outbox/dead/retry", h.Outbox.RetryAll),
			get("/outbox/stats", h.Outbox.Stats),
			get("/outbox/:id", h.Outbox.Entry),
			post("/outbox/:id/retry", h.Outbox.Retry),
		}},
	}
}
