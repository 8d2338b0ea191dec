package sig

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"goxtab/domain/tabs"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// twoProportionZ runs the pooled two-proportion z-test between columns
// i and j of a percent row. The pooled proportion uses the weighted
// bases; the standard error uses the design-effect-adjusted effective
// bases. Returns ok=false when the pair carries no information
// (degenerate pooled proportion or missing bases) - an exclusion, not a
// non-significant result.
func twoProportionZ(row *tabs.Row, bases []tabs.BaseStat, i, j int) (tabs.PairTest, bool) {
	bi, bj := bases[i], bases[j]
	if bi.Weighted == 0 || bj.Weighted == 0 || bi.Effective <= 0 || bj.Effective <= 0 {
		return tabs.PairTest{}, false
	}

	pi := row.Cells[i].Weighted / bi.Weighted
	pj := row.Cells[j].Weighted / bj.Weighted

	pooled := (bi.Weighted*pi + bj.Weighted*pj) / (bi.Weighted + bj.Weighted)
	se := math.Sqrt(pooled * (1 - pooled) * (1/bi.Effective + 1/bj.Effective))
	if se == 0 || math.IsNaN(se) {
		return tabs.PairTest{}, false
	}

	z := (pi - pj) / se
	p := 2 * (1 - stdNormal.CDF(math.Abs(z)))

	pt := tabs.PairTest{ColI: i, ColJ: j, Test: "ztest", Stat: z, PValue: p}
	if pj > pi {
		pt.ColI, pt.ColJ = j, i
		pt.Stat = -z
	}
	return pt, true
}
