// Package export renders audit reports as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// ContentType is the MIME type of the workbook written by WriteReport.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetSummary    = "Summary"
	SheetFindings   = "Findings"
	SheetOperations = "Operations"
)

// WriteReport writes report as an XLSX workbook with a summary sheet, one row
// per finding (most severe first) and one row per operation.
func WriteReport(w io.Writer, report *models.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetFindings, SheetOperations} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	if err := writeSummary(f, report); err != nil {
		return err
	}
	if err := writeFindings(f, report.Findings); err != nil {
		return err
	}
	if err := writeOperations(f, report.Operations); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename is the attachment name used for a report download.
func Filename(report *models.Report) string {
	return fmt.Sprintf("audit-%s.xlsx", report.GeneratedAt.UTC().Format("20060102-150405"))
}

func writeSummary(f *excelize.File, report *models.Report) error {
	s := report.Summary
	m := report.Metrics
	rows := [][]any{
		{"Report", report.ID},
		{"Generated at", report.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Total issues", s.TotalIssues},
	}
	for _, sev := range models.Severities {
		rows = append(rows, []any{"Severity " + string(sev), s.SeverityBreakdown[sev]})
	}
	rows = append(rows,
		[]any{"Loads", s.TotalLoads},
		[]any{"Contracts", s.TotalContracts},
		[]any{"Settlement entries", s.TotalEntries},
		[]any{"Operations", s.TotalOperations},
		[]any{"Finalization rate", m.FinalizationRate},
		[]any{"Quantity fill rate", m.QuantityFillRate},
		[]any{"Total freight", m.TotalFreight.InexactFloat64()},
		[]any{"Total grain value", m.TotalGrain.InexactFloat64()},
		[]any{"Total quantity", m.TotalQuantity},
		[]any{"Contracts done rate", m.DoneRate},
	)
	for _, w := range report.Warnings {
		rows = append(rows, []any{"Warning", w})
	}

	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "A", 24)
}

func writeFindings(f *excelize.File, findings []models.Finding) error {
	rows := [][]any{{"Severity", "Category", "Message", "Affected", "Affected IDs"}}
	for _, finding := range models.BySeverity(findings) {
		rows = append(rows, []any{
			string(finding.Severity),
			string(finding.Category),
			finding.Message,
			len(finding.AffectedIDs),
			strings.Join(finding.AffectedIDs, ", "),
		})
	}
	if err := writeRows(f, SheetFindings, rows); err != nil {
		return err
	}
	return f.SetColWidth(SheetFindings, "C", "C", 60)
}

func writeOperations(f *excelize.File, operations []models.Operation) error {
	rows := [][]any{{"Operation", "Group", "Status", "Loads", "Quantity", "Freight", "Grain value", "Start", "End", "Contracts"}}
	for _, op := range operations {
		rows = append(rows, []any{
			op.ID,
			op.GroupID,
			string(op.Status),
			op.LoadCount,
			op.Quantity,
			op.FreightCost.InexactFloat64(),
			op.GrainValue.InexactFloat64(),
			formatDate(op.StartDate),
			formatDate(op.EndDate),
			strings.Join(op.ContractIDs, ", "),
		})
	}
	return writeRows(f, SheetOperations, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
