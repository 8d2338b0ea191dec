package engine

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"goxtab/domain/survey"
	"goxtab/domain/tabs"
)

// ComputeBase computes the base triple for an already-filtered
// respondent subset (non-missing responses only).
//
// The canonical design-effect definition here is Kish's ratio form:
// n_eff = (Σw)² / Σw², DEFF = unweighted_base / n_eff. This form is
// scale-invariant (any constant weight vector gives DEFF exactly 1) and
// is algebraically identical to 1+CV² over an all-positive subset; the
// CV form is asserted against this one in tests rather than implemented
// a second time. Zero-weight respondents count toward the unweighted
// base but drop out of every weighted quantity, which Kish's form does
// naturally.
func ComputeBase(rows []int, weights survey.Weights) tabs.BaseStat {
	base := tabs.BaseStat{Unweighted: len(rows)}
	if len(rows) == 0 {
		base.Empty = true
		return base
	}

	var sumW, sumW2 float64
	for _, ri := range rows {
		w := weights[ri]
		sumW += w
		sumW2 += w * w
	}
	base.Weighted = sumW
	if sumW2 == 0 {
		// Every weight in the subset is zero: weighted aggregates are
		// undefined, which is an empty base, not a zero percentage.
		base.Empty = true
		return base
	}
	base.Effective = sumW * sumW / sumW2
	base.Deff = float64(base.Unweighted) / base.Effective
	return base
}

// WeightDiagnostics summarizes a weight vector for run-level warnings
type WeightDiagnostics struct {
	Mean      float64
	StdDev    float64
	CV        float64
	Min       float64
	Max       float64
	ZeroCount int
}

// DiagnoseWeights profiles the full weight vector once per run. The CV
// feeds the degraded-design-effect warning: DEFF over the whole sample
// is 1+CV² of the positive weights.
func DiagnoseWeights(weights survey.Weights) (WeightDiagnostics, error) {
	d := WeightDiagnostics{}
	positive := make([]float64, 0, len(weights))
	for _, w := range weights {
		if w == 0 {
			d.ZeroCount++
			continue
		}
		positive = append(positive, w)
	}
	if len(positive) == 0 {
		return d, fmt.Errorf("no positive weights")
	}

	mean, err := stats.Mean(positive)
	if err != nil {
		return d, err
	}
	sd, err := stats.StandardDeviationSample(positive)
	if err != nil {
		// A single positive weight has no sample deviation.
		sd = 0
	}
	min, _ := stats.Min(positive)
	max, _ := stats.Max(positive)

	d.Mean = mean
	d.StdDev = sd
	d.Min = min
	d.Max = max
	if mean != 0 {
		d.CV = sd / mean
	}
	return d, nil
}
