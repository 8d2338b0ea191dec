package sig

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"goxtab/domain/tabs"
)

// welchT runs Welch's unequal-variance t-test between columns i and j
// of a mean row. Each side's standard error is SD/sqrt(n_eff) with the
// design-effect-adjusted effective base; degrees of freedom come from
// the Welch-Satterthwaite equation. Returns ok=false when neither side
// carries spread or the effective bases cannot support a test.
func welchT(row *tabs.Row, bases []tabs.BaseStat, i, j int) (tabs.PairTest, bool) {
	bi, bj := bases[i], bases[j]
	if bi.Effective <= 1 || bj.Effective <= 1 {
		return tabs.PairTest{}, false
	}

	mi, mj := row.Cells[i].Weighted, row.Cells[j].Weighted
	vi := row.Cells[i].SD * row.Cells[i].SD / bi.Effective
	vj := row.Cells[j].SD * row.Cells[j].SD / bj.Effective
	se := math.Sqrt(vi + vj)
	if se == 0 || math.IsNaN(se) {
		return tabs.PairTest{}, false
	}

	t := (mi - mj) / se
	df := welchSatterthwaite(vi, vj, bi.Effective, bj.Effective)
	if df <= 0 || math.IsNaN(df) {
		return tabs.PairTest{}, false
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - tDist.CDF(math.Abs(t)))

	pt := tabs.PairTest{ColI: i, ColJ: j, Test: "welch", Stat: t, PValue: p}
	if mj > mi {
		pt.ColI, pt.ColJ = j, i
		pt.Stat = -t
	}
	return pt, true
}

// welchSatterthwaite computes the approximate degrees of freedom from
// the per-side squared standard errors vi, vj and effective sizes.
func welchSatterthwaite(vi, vj, ni, nj float64) float64 {
	num := (vi + vj) * (vi + vj)
	den := vi*vi/(ni-1) + vj*vj/(nj-1)
	if den == 0 {
		return 0
	}
	return num / den
}
