// Package excel renders finished runs into crosstab workbooks: one
// sheet per question with the base row, value rows with significance
// letters, and a summary sheet listing skips and warnings.
package excel

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"goxtab/domain/tabs"
	"goxtab/internal/errors"
	"goxtab/ports"
)

// Shared styling, matching the product's template workbooks
const (
	headerFill = "4472C4"
	noteFill   = "FFF2CC"
)

// ReportWriter writes crosstab workbooks
type ReportWriter struct{}

// NewReportWriter creates an xlsx report writer
func NewReportWriter() ports.ReportWriter {
	return &ReportWriter{}
}

// Write renders the run into an xlsx workbook at path
func (w *ReportWriter) Write(ctx context.Context, result *tabs.RunResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create header style")
	}
	noteStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{noteFill}, Pattern: 1},
		Font: &excelize.Font{Italic: true, Size: 9},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create note style")
	}

	if err := w.writeSummary(f, result, headerStyle, noteStyle); err != nil {
		return err
	}

	for qi, res := range result.Results {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeQuestion(f, qi, res, headerStyle); err != nil {
			return errors.Wrapf(err, "failed to write sheet for %s", res.Code)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save report to %s", path)
	}
	return nil
}

// writeSummary fills the first sheet with run status, skips, warnings
func (w *ReportWriter) writeSummary(f *excelize.File, result *tabs.RunResult, headerStyle, noteStyle int) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.Wrap(err, "failed to rename summary sheet")
	}

	f.SetCellValue(sheet, "A1", "Crosstab Run Summary")
	f.SetCellStyle(sheet, "A1", "B1", headerStyle)
	f.SetCellValue(sheet, "A2", "Run ID")
	f.SetCellValue(sheet, "B2", result.RunID.String())
	f.SetCellValue(sheet, "A3", "Fingerprint")
	f.SetCellValue(sheet, "B3", result.Fingerprint.String())
	f.SetCellValue(sheet, "A4", "Status")
	f.SetCellValue(sheet, "B4", string(result.Summary.Status))
	f.SetCellValue(sheet, "A5", "Questions tabulated")
	f.SetCellValue(sheet, "B5", result.Summary.QuestionsRun)

	row := 7
	if len(result.Summary.Skipped) > 0 {
		f.SetCellValue(sheet, cell("A", row), "Skipped Questions")
		f.SetCellStyle(sheet, cell("A", row), cell("C", row), headerStyle)
		row++
		for _, skip := range result.Summary.Skipped {
			f.SetCellValue(sheet, cell("A", row), string(skip.Question))
			f.SetCellValue(sheet, cell("B", row), string(skip.Reason))
			f.SetCellValue(sheet, cell("C", row), skip.Detail)
			row++
		}
		row++
	}
	if len(result.Summary.Warnings) > 0 {
		f.SetCellValue(sheet, cell("A", row), "Warnings")
		f.SetCellStyle(sheet, cell("A", row), cell("C", row), headerStyle)
		row++
		for _, warning := range result.Summary.Warnings {
			f.SetCellValue(sheet, cell("A", row), string(warning.Question))
			f.SetCellValue(sheet, cell("B", row), string(warning.Column))
			f.SetCellValue(sheet, cell("C", row), warning.Message)
			f.SetCellStyle(sheet, cell("A", row), cell("C", row), noteStyle)
			row++
		}
	}

	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "C", 48)
	return nil
}

// writeQuestion renders one question's table on its own sheet
func (w *ReportWriter) writeQuestion(f *excelize.File, qi int, res *tabs.QuestionResult, headerStyle int) error {
	sheet := sheetName(qi, string(res.Code))
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s - %s", res.Code, res.Text))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	// Column headers with significance letters
	for ci, col := range res.Columns {
		ref, _ := excelize.CoordinatesToCellName(ci+2, 3)
		f.SetCellValue(sheet, ref, fmt.Sprintf("%s (%s)", col.Label, col.Letter))
		f.SetCellStyle(sheet, ref, ref, headerStyle)
	}

	// Base row: unweighted and weighted
	f.SetCellValue(sheet, "A4", "Base (unweighted)")
	f.SetCellValue(sheet, "A5", "Base (weighted)")
	for ci, base := range res.Bases {
		refU, _ := excelize.CoordinatesToCellName(ci+2, 4)
		refW, _ := excelize.CoordinatesToCellName(ci+2, 5)
		if base.Empty {
			f.SetCellValue(sheet, refU, base.Unweighted)
			f.SetCellValue(sheet, refW, "-")
			continue
		}
		f.SetCellValue(sheet, refU, base.Unweighted)
		f.SetCellValue(sheet, refW, base.Weighted)
	}

	rowNum := 6
	for _, row := range res.Rows {
		f.SetCellValue(sheet, cell("A", rowNum), row.Label)
		for ci, c := range row.Cells {
			ref, _ := excelize.CoordinatesToCellName(ci+2, rowNum)
			f.SetCellValue(sheet, ref, formatCell(row.Kind, c, res.Bases[ci]))
		}
		rowNum++
	}

	if res.Overall != nil {
		rowNum++
		f.SetCellValue(sheet, cell("A", rowNum),
			fmt.Sprintf("Chi-square: %.2f (df=%d, p=%.4f)", res.Overall.Stat, res.Overall.DF, res.Overall.PValue))
	}

	f.SetColWidth(sheet, "A", "A", 36)
	last, _ := excelize.ColumnNumberToName(len(res.Columns) + 1)
	f.SetColWidth(sheet, "B", last, 14)
	return nil
}

// formatCell renders a value with its significance letters
func formatCell(kind tabs.RowKind, c tabs.Cell, base tabs.BaseStat) string {
	if base.Empty {
		return "-"
	}
	var v string
	if kind == tabs.RowPercent {
		v = fmt.Sprintf("%g%%", c.Value)
	} else {
		v = fmt.Sprintf("%g", c.Value)
	}
	if len(c.Letters) > 0 {
		v += " " + strings.Join(c.Letters, "")
	}
	return v
}

// sheetName builds a unique, length-safe sheet name
func sheetName(qi int, code string) string {
	name := fmt.Sprintf("%02d %s", qi+1, code)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
