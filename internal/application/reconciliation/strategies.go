package reconciliation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/internal/domain/shared/strategy"
)

// Strategy names, in the order the engine runs them
const (
	StrategyDirectItem      = "direct_item_reference"
	StrategyLegacyInvoice   = "legacy_invoice_field"
	StrategyLegacyReport    = "legacy_report_field"
	StrategySerialNumber    = "serial_number_match"
	StrategyClientProximity = "client_date_proximity"
)

// Proposal is a link a strategy wants to create. Err is set for a record the strategy had
// to give up on; the engine logs and counts it and moves on.
type Proposal struct {
	Pair
	Err error
}

// LinkStrategy proposes invoice/report links from one kind of evidence
type LinkStrategy interface {
	strategy.Strategy
	Propose(ctx context.Context, store Store, run *RunState) ([]Proposal, error)
}

// pairStrategy turns a Store pair query into proposals; dangling references become errors.
type pairStrategy struct {
	strategy.Descriptor
	query func(Store, context.Context) ([]Pair, error)
}

func (s *pairStrategy) Propose(ctx context.Context, store Store, _ *RunState) ([]Proposal, error) {
	pairs, err := s.query(store, ctx)
	if err != nil {
		return nil, err
	}
	proposals := make([]Proposal, len(pairs))
	for i, p := range pairs {
		proposals[i] = Proposal{Pair: p}
		if !p.TargetExists {
			proposals[i].Err = ErrDanglingReference
		}
	}
	return proposals, nil
}

// NewDirectItemStrategy links every invoice item that names its report
func NewDirectItemStrategy() LinkStrategy {
	return &pairStrategy{
		Descriptor: strategy.Reference(StrategyDirectItem, "Invoice items carrying a report id"),
		query:      Store.ItemReportPairs,
	}
}

// NewLegacyInvoiceStrategy links invoices through their legacy single report id
func NewLegacyInvoiceStrategy() LinkStrategy {
	return &pairStrategy{
		Descriptor: strategy.Reference(StrategyLegacyInvoice, "Legacy report id stored on the invoice"),
		query:      Store.LegacyInvoicePairs,
	}
}

// NewLegacyReportStrategy links reports through their denormalised invoice id
func NewLegacyReportStrategy() LinkStrategy {
	return &pairStrategy{
		Descriptor: strategy.Reference(StrategyLegacyReport, "Invoice id stored on the report"),
		query:      Store.LegacyReportPairs,
	}
}

// NewSerialNumberStrategy links items without a report id to every report of the same
// client with the same device serial number
func NewSerialNumberStrategy() LinkStrategy {
	return &pairStrategy{
		Descriptor: strategy.Heuristic(StrategySerialNumber, "Same serial number and client"),
		query:      Store.SerialNumberPairs,
	}
}

// ProximityStrategy links each invoice still unlinked to the single report of the same client
// inspected closest to the invoice date, within a symmetric window.
//
// Reports not yet invoiced are preferred over invoiced ones. Among those, the smallest absolute
// day difference wins, then the most recent inspection; a tie that survives both is ambiguous.
type ProximityStrategy struct {
	strategy.Descriptor
	days int
}

// NewProximityStrategy creates the strategy with a window of ±days
func NewProximityStrategy(days int) *ProximityStrategy {
	return &ProximityStrategy{
		Descriptor: strategy.Heuristic(StrategyClientProximity,
			fmt.Sprintf("Same client, inspection within %d days of the invoice", days)),
		days: days,
	}
}

// window covers whole UTC calendar days, matching dayDistance: from the start of the day
// days before the invoice up to, not including, the start of the day after days after it.
func (s *ProximityStrategy) window(invoiceDate time.Time) (from, until time.Time) {
	y, m, d := invoiceDate.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -s.days), day.AddDate(0, 0, s.days+1)
}

// Propose implements LinkStrategy
func (s *ProximityStrategy) Propose(ctx context.Context, store Store, run *RunState) ([]Proposal, error) {
	invoices, err := store.UnlinkedInvoices(ctx)
	if err != nil {
		return nil, err
	}

	proposals := make([]Proposal, 0, len(invoices))
	for _, inv := range invoices {
		if run.InvoiceLinked(inv.ID) {
			continue
		}
		from, until := s.window(inv.InvoiceDate)
		candidates, err := store.ReportsNear(ctx, inv.ClientID, from, until)
		if err != nil {
			proposals = append(proposals, Proposal{Pair: Pair{InvoiceID: inv.ID}, Err: err})
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		best, err := closest(inv.InvoiceDate, candidates, run)
		p := Proposal{Pair: Pair{InvoiceID: inv.ID, ReportID: best.ID, TargetExists: true}, Err: err}
		proposals = append(proposals, p)
	}
	return proposals, nil
}

// closest picks the best candidate or returns ErrAmbiguousMatch
func closest(invoiceDate time.Time, candidates []ReportCandidate, run *RunState) (ReportCandidate, error) {
	fresh := make([]ReportCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Invoiced && !run.ReportLinked(c.ID) {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) > 0 {
		candidates = fresh
	}

	sorted := make([]ReportCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := dayDistance(invoiceDate, sorted[i].InspectionDate), dayDistance(invoiceDate, sorted[j].InspectionDate)
		if di != dj {
			return di < dj
		}
		return sorted[i].InspectionDate.After(sorted[j].InspectionDate)
	})

	if len(sorted) > 1 &&
		dayDistance(invoiceDate, sorted[0].InspectionDate) == dayDistance(invoiceDate, sorted[1].InspectionDate) &&
		sorted[0].InspectionDate.Equal(sorted[1].InspectionDate) {
		return sorted[0], ErrAmbiguousMatch
	}
	return sorted[0], nil
}

// dayDistance is the absolute difference in whole calendar days
func dayDistance(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	days := int(da.Sub(db).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// DefaultStrategies returns the five strategies in priority order
func DefaultStrategies(windowDays int) []LinkStrategy {
	return []LinkStrategy{
		NewDirectItemStrategy(),
		NewLegacyInvoiceStrategy(),
		NewLegacyReportStrategy(),
		NewSerialNumberStrategy(),
		NewProximityStrategy(windowDays),
	}
}

var (
	// ErrAmbiguousMatch is reported when several reports are equally good matches
	ErrAmbiguousMatch = shared.NewDomainError("AMBIGUOUS_MATCH", "Several reports match equally well")
	// ErrDanglingReference is reported when a stored id points at a row that no longer exists
	ErrDanglingReference = shared.NewDomainError("DANGLING_REFERENCE", "Referenced invoice or report does not exist")
	// ErrReconciliationLocked is returned when another linking run holds the lock
	ErrReconciliationLocked = shared.NewDomainError("RECONCILIATION_LOCKED", "Another reconciliation run is in progress")
)
