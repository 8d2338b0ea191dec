// Package sig runs the pairwise significance pass over a processed
// question table: for every output row and every unordered banner
// column pair it picks the test implied by the row's statistic kind,
// applies the optional Bonferroni correction, and assigns directional
// letters.
//
// Letter assignment is asymmetric on purpose: when column i is
// significantly greater than column j, i's cell gains j's letter and
// j's cell gains nothing for that comparison. The lower side is never
// marked. This mirrors the reporting convention the tables are read
// with and must not be "fixed" into a symmetric scheme.
package sig

import (
	"sort"

	"goxtab/domain/run"
	"goxtab/domain/survey"
	"goxtab/domain/tabs"
)

// Annotate enriches a question result in place with pairwise test
// outcomes, cell letters, and the optional overall chi-square.
func Annotate(res *tabs.QuestionResult, cfg run.Config) {
	eligible := eligibleColumns(res.Bases, cfg.MinBase)

	alpha := cfg.Alpha
	if cfg.Bonferroni {
		if c := pairCount(eligible); c > 0 {
			alpha = cfg.Alpha / float64(c)
		}
	}

	for ri := range res.Rows {
		row := &res.Rows[ri]
		if !familyAllows(cfg.TestFamily, row.Kind) {
			continue
		}
		annotateRow(res, row, eligible, alpha)
	}

	// Multi-select rows count the same respondent in several rows, which
	// breaks the independence table; the overall test stays single-select.
	if cfg.OverallChiSquare && res.Type == survey.TypeSingle {
		res.Overall = overallChiSquare(res, cfg.Alpha)
	}
}

// annotateRow tests every unordered eligible pair for one row
func annotateRow(res *tabs.QuestionResult, row *tabs.Row, eligible []bool, alpha float64) {
	for ci := range row.Cells {
		row.Cells[ci].Tested = eligible[ci] && !res.Bases[ci].Empty
	}

	for i := 0; i < len(row.Cells); i++ {
		if !row.Cells[i].Tested {
			continue
		}
		for j := i + 1; j < len(row.Cells); j++ {
			if !row.Cells[j].Tested {
				continue
			}

			var pt tabs.PairTest
			var ok bool
			switch row.Kind {
			case tabs.RowPercent:
				pt, ok = twoProportionZ(row, res.Bases, i, j)
			case tabs.RowMean:
				pt, ok = welchT(row, res.Bases, i, j)
			}
			if !ok {
				continue
			}

			pt.RowKey = row.Key
			pt.Greater = pt.PValue < alpha
			if pt.Greater {
				// pt.ColI already points at the greater-value column;
				// it gains the lower column's letter, the lower side
				// gains nothing.
				letter := res.Columns[pt.ColJ].Letter
				row.Cells[pt.ColI].Letters = appendLetter(row.Cells[pt.ColI].Letters, letter)
			}
			res.Tests = append(res.Tests, pt)
		}
	}

	for ci := range row.Cells {
		sort.Strings(row.Cells[ci].Letters)
	}
}

// familyAllows maps the configured test family onto row kinds
func familyAllows(family run.TestFamily, kind tabs.RowKind) bool {
	switch family {
	case run.TestZOnly:
		return kind == tabs.RowPercent
	case run.TestTOnly:
		return kind == tabs.RowMean
	default:
		return true
	}
}

// eligibleColumns marks columns testable at the configured minimum.
// An ineligible column still appears in the base row; it is excluded
// from every comparison, which is stronger than "not significant".
func eligibleColumns(bases []tabs.BaseStat, minBase int) []bool {
	eligible := make([]bool, len(bases))
	for i, b := range bases {
		eligible[i] = !b.Empty && b.Unweighted >= minBase
	}
	return eligible
}

// pairCount counts unordered pairs among eligible columns
func pairCount(eligible []bool) int {
	k := 0
	for _, e := range eligible {
		if e {
			k++
		}
	}
	return k * (k - 1) / 2
}

func appendLetter(letters []string, letter string) []string {
	for _, l := range letters {
		if l == letter {
			return letters
		}
	}
	return append(letters, letter)
}
