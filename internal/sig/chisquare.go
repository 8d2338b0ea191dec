package sig

import (
	"gonum.org/v1/gonum/stat/distuv"

	"goxtab/domain/banner"
	"goxtab/domain/tabs"
)

// overallChiSquare runs the independence test across the full
// option x column table of a categorical question, on unweighted
// counts. The Total column is left out: its members are every other
// column's members again, which would double-count the sample. The
// result is reported alongside the pairwise letters, never instead of
// them. Returns nil when the table is degenerate (under two rows or
// columns, or an empty margin).
func overallChiSquare(res *tabs.QuestionResult, alpha float64) *tabs.ChiSquare {
	cols := make([]int, 0, len(res.Columns))
	for ci, col := range res.Columns {
		if col.ID == banner.TotalID {
			continue
		}
		cols = append(cols, ci)
	}

	rows := make([]*tabs.Row, 0, len(res.Rows))
	for ri := range res.Rows {
		if res.Rows[ri].Kind == tabs.RowPercent {
			rows = append(rows, &res.Rows[ri])
		}
	}
	if len(rows) < 2 || len(cols) < 2 {
		return nil
	}

	rowTotals := make([]float64, len(rows))
	colTotals := make([]float64, len(cols))
	var grand float64
	for r, row := range rows {
		for c, ci := range cols {
			n := float64(row.Cells[ci].Count)
			rowTotals[r] += n
			colTotals[c] += n
			grand += n
		}
	}
	if grand == 0 {
		return nil
	}
	for _, t := range rowTotals {
		if t == 0 {
			return nil
		}
	}
	for _, t := range colTotals {
		if t == 0 {
			return nil
		}
	}

	var stat float64
	for r, row := range rows {
		for c, ci := range cols {
			expected := rowTotals[r] * colTotals[c] / grand
			observed := float64(row.Cells[ci].Count)
			d := observed - expected
			stat += d * d / expected
		}
	}

	df := (len(rows) - 1) * (len(cols) - 1)
	chiDist := distuv.ChiSquared{K: float64(df)}
	p := 1 - chiDist.CDF(stat)

	return &tabs.ChiSquare{
		Stat:        stat,
		DF:          df,
		PValue:      p,
		Significant: p < alpha,
	}
}
