package engine

import (
	"math"
	"testing"

	"goxtab/domain/survey"
)

func TestComputeBase_UniformWeights(t *testing.T) {
	weights := survey.Uniform(10)
	rows := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	base := ComputeBase(rows, weights)

	if base.Unweighted != 10 {
		t.Errorf("unweighted = %d, expected 10", base.Unweighted)
	}
	if base.Weighted != 10 {
		t.Errorf("weighted = %g, expected 10", base.Weighted)
	}
	if base.Effective != 10 {
		t.Errorf("effective = %g, expected 10 under uniform weights", base.Effective)
	}
	if base.Deff != 1 {
		t.Errorf("deff = %g, expected exactly 1 under uniform weights", base.Deff)
	}
	if base.Empty {
		t.Error("base should not be empty")
	}

	// Any constant weight vector is self-weighting: the effective base
	// equals the respondent count and DEFF stays exactly 1.
	constant := make(survey.Weights, 10)
	for i := range constant {
		constant[i] = 2.5
	}
	base = ComputeBase(rows, constant)
	if base.Effective != 10 || base.Deff != 1 {
		t.Errorf("constant weights: effective = %g deff = %g, expected 10 and 1", base.Effective, base.Deff)
	}
}

func TestComputeBase_KishMatchesCVForm(t *testing.T) {
	// The ratio form (sumW)^2/sumW2 and the 1+CV^2 form are the same
	// quantity on a positive-weight subset; verify on uneven weights.
	weights := survey.Weights{0.5, 1.5, 2.0, 0.8, 1.2, 3.0}
	rows := []int{0, 1, 2, 3, 4, 5}

	base := ComputeBase(rows, weights)

	n := float64(len(rows))
	var sumW, sumW2 float64
	for _, ri := range rows {
		sumW += weights[ri]
		sumW2 += weights[ri] * weights[ri]
	}
	mean := sumW / n
	variance := sumW2/n - mean*mean
	cv2 := variance / (mean * mean)

	if math.Abs(base.Deff-(1+cv2)) > 1e-12 {
		t.Errorf("deff = %.12f, 1+CV^2 = %.12f", base.Deff, 1+cv2)
	}
	if math.Abs(base.Effective-n/(1+cv2)) > 1e-9 {
		t.Errorf("effective = %.6f, n/(1+CV^2) = %.6f", base.Effective, n/(1+cv2))
	}
	if base.Deff <= 1 {
		t.Errorf("uneven weights must inflate deff above 1, got %g", base.Deff)
	}
}

func TestComputeBase_Empty(t *testing.T) {
	base := ComputeBase(nil, survey.Uniform(5))
	if !base.Empty {
		t.Error("no rows should produce an empty base")
	}
	if base.Unweighted != 0 {
		t.Errorf("unweighted = %d, expected 0", base.Unweighted)
	}
}

func TestComputeBase_AllZeroWeights(t *testing.T) {
	// Zero-weight respondents count unweighted but an all-zero subset
	// has no weighted aggregates at all.
	weights := survey.Weights{0, 0, 0, 1}
	base := ComputeBase([]int{0, 1, 2}, weights)

	if !base.Empty {
		t.Error("all-zero-weight subset should be an empty base")
	}
	if base.Unweighted != 3 {
		t.Errorf("unweighted = %d, expected 3", base.Unweighted)
	}
}

func TestComputeBase_ZeroWeightMember(t *testing.T) {
	weights := survey.Weights{1, 1, 0}
	base := ComputeBase([]int{0, 1, 2}, weights)

	if base.Empty {
		t.Error("subset with positive weights should not be empty")
	}
	if base.Unweighted != 3 {
		t.Errorf("unweighted = %d, expected 3", base.Unweighted)
	}
	if base.Weighted != 2 {
		t.Errorf("weighted = %g, expected 2", base.Weighted)
	}
	// Only the two positive weights carry information.
	if base.Effective != 2 {
		t.Errorf("effective = %g, expected 2", base.Effective)
	}
}

func TestDiagnoseWeights(t *testing.T) {
	weights := survey.Weights{1, 1, 1, 1, 0, 0}

	diag, err := DiagnoseWeights(weights)
	if err != nil {
		t.Fatalf("DiagnoseWeights failed: %v", err)
	}
	if diag.ZeroCount != 2 {
		t.Errorf("zero count = %d, expected 2", diag.ZeroCount)
	}
	if diag.Mean != 1 {
		t.Errorf("positive-weight mean = %g, expected 1", diag.Mean)
	}
	if diag.CV != 0 {
		t.Errorf("CV of uniform positive weights = %g, expected 0", diag.CV)
	}

	if _, err := DiagnoseWeights(survey.Weights{0, 0}); err == nil {
		t.Error("expected an error when no weight is positive")
	}
}
