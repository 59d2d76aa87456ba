package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/repairshop/backend/internal/application/reconciliation"
)

// ReconciliationHandler exposes the invoice/report link repair engine
type ReconciliationHandler struct {
	BaseHandler
	engine *reconciliation.Engine
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(engine *reconciliation.Engine) *ReconciliationHandler {
	return &ReconciliationHandler{engine: engine}
}

// Analyze handles GET /reconciliation/analysis
func (h *ReconciliationHandler) Analyze(c *gin.Context) {
	analysis, err := h.engine.Analyze(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAnalysisResponse(analysis))
}

// FixLinking handles POST /reconciliation/fix. Pass dry_run=true to preview without writing.
func (h *ReconciliationHandler) FixLinking(c *gin.Context) {
	dryRun := false
	if raw := c.Query("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "dry_run must be a boolean")
			return
		}
		dryRun = v
	}

	result, err := h.engine.FixLinking(c.Request.Context(), dryRun)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toFixLinkingResponse(result))
}

func toFixLinkingResponse(r *reconciliation.FixResult) FixLinkingResponse {
	resp := FixLinkingResponse{
		DryRun:         r.DryRun,
		Strategies:     make([]StrategyResultResponse, len(r.Strategies)),
		TotalLinked:    r.TotalLinked(),
		ReportsFlagged: r.ReportsFlagged,
		DurationMS:     r.Duration.Milliseconds(),
	}
	for i, s := range r.Strategies {
		resp.Strategies[i] = StrategyResultResponse{
			Strategy:      s.Strategy,
			Evidence:      string(s.Evidence),
			Candidates:    s.Candidates,
			Linked:        s.Linked,
			AlreadyLinked: s.AlreadyLinked,
			Skipped:       s.Skipped,
			Errors:        s.Errors,
		}
	}
	return resp
}

func toAnalysisResponse(a *reconciliation.Analysis) AnalysisResponse {
	resp := AnalysisResponse{
		Counts: LinkCountsResponse{
			Invoices:         a.Counts.Invoices,
			Reports:          a.Counts.Reports,
			Links:            a.Counts.Links,
			ItemsWithReport:  a.Counts.ItemsWithReport,
			ReportsUnflagged: a.Counts.ReportsUnflagged,
		},
		InvoicesUnlinked: make([]UnlinkedInvoiceResponse, len(a.InvoicesUnlinked)),
		ReportsUnlinked:  make([]UnlinkedReportResponse, len(a.ReportsUnlinked)),
		ItemsUnlinked:    make([]UnlinkedItemResponse, len(a.ItemsUnlinked)),
	}
	for i, inv := range a.InvoicesUnlinked {
		resp.InvoicesUnlinked[i] = UnlinkedInvoiceResponse(inv)
	}
	for i, r := range a.ReportsUnlinked {
		resp.ReportsUnlinked[i] = UnlinkedReportResponse(r)
	}
	for i, it := range a.ItemsUnlinked {
		resp.ItemsUnlinked[i] = UnlinkedItemResponse(it)
	}
	return resp
}
