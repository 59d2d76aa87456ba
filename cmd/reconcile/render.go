package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/repairshop/backend/internal/application/reconciliation"
)

const (
	colorText    lipgloss.Color = "#cdd6f4"
	colorSubtext lipgloss.Color = "#a6adc8"
	colorGreen   lipgloss.Color = "#a6e3a1"
	colorYellow  lipgloss.Color = "#f9e2af"
	colorRed     lipgloss.Color = "#f38ba8"
	colorBlue    lipgloss.Color = "#89b4fa"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSubtext)
	cellStyle   = lipgloss.NewStyle().Foreground(colorText)
	goodStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	errStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// maxListed caps the unlinked records printed per section
const maxListed = 20

// table renders rows in padded columns; widths are measured on the rendered cells
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) { t.rows = append(t.rows, cells) }

func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	line := func(cells []string, style func(int, string) string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style(i, cell) + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		fmt.Fprintln(w, "  "+strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	line(t.header, func(_ int, s string) string { return headerStyle.Render(s) })
	for _, row := range t.rows {
		line(row, func(_ int, s string) string { return s })
	}
}

func renderAnalysis(w io.Writer, a *reconciliation.Analysis) {
	fmt.Fprintln(w, titleStyle.Render("Invoice / report links"))
	counts := &table{header: []string{"invoices", "reports", "links", "items with report", "reports unflagged"}}
	counts.add(
		cellStyle.Render(strconv.FormatInt(a.Counts.Invoices, 10)),
		cellStyle.Render(strconv.FormatInt(a.Counts.Reports, 10)),
		cellStyle.Render(strconv.FormatInt(a.Counts.Links, 10)),
		cellStyle.Render(strconv.FormatInt(a.Counts.ItemsWithReport, 10)),
		flagged(a.Counts.ReportsUnflagged),
	)
	counts.render(w)

	if len(a.InvoicesUnlinked)+len(a.ReportsUnlinked)+len(a.ItemsUnlinked) == 0 {
		fmt.Fprintln(w, goodStyle.Render("Every invoice and report is linked."))
		return
	}

	if len(a.InvoicesUnlinked) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Invoices without a report (%d)", len(a.InvoicesUnlinked))))
		t := &table{header: []string{"invoice", "client", "date"}}
		for _, inv := range head(a.InvoicesUnlinked) {
			t.add(cellStyle.Render(inv.InvoiceNumber), cellStyle.Render(inv.ClientID.String()), cellStyle.Render(inv.InvoiceDate.Format("2006-01-02")))
		}
		t.render(w)
		more(w, len(a.InvoicesUnlinked))
	}

	if len(a.ReportsUnlinked) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Reports without an invoice (%d)", len(a.ReportsUnlinked))))
		t := &table{header: []string{"report", "serial", "client", "inspected"}}
		for _, r := range head(a.ReportsUnlinked) {
			t.add(cellStyle.Render(r.ID.String()), cellStyle.Render(r.SerialNumber), cellStyle.Render(r.ClientID.String()), cellStyle.Render(r.InspectionDate.Format("2006-01-02")))
		}
		t.render(w)
		more(w, len(a.ReportsUnlinked))
	}

	if len(a.ItemsUnlinked) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Invoice items naming an unlinked report (%d)", len(a.ItemsUnlinked))))
		t := &table{header: []string{"item", "invoice", "report"}}
		for _, it := range head(a.ItemsUnlinked) {
			t.add(cellStyle.Render(it.ID.String()), cellStyle.Render(it.InvoiceID.String()), cellStyle.Render(it.ReportID.String()))
		}
		t.render(w)
		more(w, len(a.ItemsUnlinked))
	}
}

func renderFix(w io.Writer, r *reconciliation.FixResult) {
	title := "Linking run"
	if r.DryRun {
		title += " (dry run, nothing written)"
	}
	fmt.Fprintln(w, titleStyle.Render(title))

	t := &table{header: []string{"strategy", "evidence", "candidates", "linked", "already linked", "skipped"}}
	var errs []string
	for _, s := range r.Strategies {
		skipped := cellStyle.Render(strconv.Itoa(s.Skipped))
		if s.Skipped > 0 {
			skipped = warnStyle.Render(strconv.Itoa(s.Skipped))
		}
		t.add(
			cellStyle.Render(s.Strategy),
			headerStyle.Render(string(s.Evidence)),
			cellStyle.Render(strconv.Itoa(s.Candidates)),
			goodStyle.Render(strconv.Itoa(s.Linked)),
			cellStyle.Render(strconv.Itoa(s.AlreadyLinked)),
			skipped,
		)
		for _, e := range s.Errors {
			errs = append(errs, s.Strategy+": "+e)
		}
	}
	t.render(w)

	verb := "linked"
	if r.DryRun {
		verb = "would link"
	}
	fmt.Fprintf(w, "\n%s %s, %s in %s\n",
		verb,
		goodStyle.Render(strconv.Itoa(r.TotalLinked())),
		cellStyle.Render(fmt.Sprintf("%d reports flagged", r.ReportsFlagged)),
		r.Duration.Round(1e6),
	)
	for _, e := range errs {
		fmt.Fprintln(w, errStyle.Render("  ! "+e))
	}
}

func flagged(n int64) string {
	if n > 0 {
		return warnStyle.Render(strconv.FormatInt(n, 10))
	}
	return cellStyle.Render("0")
}

func head[T any](items []T) []T {
	if len(items) > maxListed {
		return items[:maxListed]
	}
	return items
}

func more(w io.Writer, n int) {
	if n > maxListed {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("  ... and %d more", n-maxListed)))
	}
}
