package sig

import (
	"math"
	"testing"

	"goxtab/domain/banner"
	"goxtab/domain/core"
	"goxtab/domain/run"
	"goxtab/domain/survey"
	"goxtab/domain/tabs"
)

// uniformBase builds the base triple a self-weighting sample produces:
// effective base equals the unweighted count and DEFF is exactly 1.
func uniformBase(n int) tabs.BaseStat {
	return tabs.BaseStat{
		Unweighted: n,
		Weighted:   float64(n),
		Effective:  float64(n),
		Deff:       1,
	}
}

func percentResult(bases []tabs.BaseStat, numerators []float64) *tabs.QuestionResult {
	res := &tabs.QuestionResult{
		Code:  core.QuestionCode("Q1"),
		Type:  survey.TypeSingle,
		Bases: bases,
	}
	cells := make([]tabs.Cell, len(bases))
	for i, num := range numerators {
		cells[i] = tabs.Cell{
			Count:    int(num),
			Weighted: num,
			Value:    100 * num / bases[i].Weighted,
		}
		res.Columns = append(res.Columns, banner.Header{
			ID:     core.ColumnID(banner.Letter(i)),
			Letter: banner.Letter(i),
		})
	}
	res.Rows = []tabs.Row{{Key: "opt:1", Kind: tabs.RowPercent, Cells: cells}}
	return res
}

func meanResult(bases []tabs.BaseStat, means, sds []float64) *tabs.QuestionResult {
	res := &tabs.QuestionResult{
		Code:  core.QuestionCode("Q2"),
		Type:  survey.TypeNumeric,
		Bases: bases,
	}
	cells := make([]tabs.Cell, len(bases))
	for i := range means {
		cells[i] = tabs.Cell{Weighted: means[i], Value: means[i], SD: sds[i]}
		res.Columns = append(res.Columns, banner.Header{
			ID:     core.ColumnID(banner.Letter(i)),
			Letter: banner.Letter(i),
		})
	}
	res.Rows = []tabs.Row{{Key: "mean", Kind: tabs.RowMean, Cells: cells}}
	return res
}

func TestTwoProportionZ_NearMiss(t *testing.T) {
	// 68% of 250 vs 62% of 300 looks like a real gap but the pooled
	// z statistic lands around 1.47, well short of 1.96.
	res := percentResult(
		[]tabs.BaseStat{uniformBase(250), uniformBase(300)},
		[]float64{170, 186},
	)

	Annotate(res, run.DefaultConfig())

	if len(res.Tests) != 1 {
		t.Fatalf("expected 1 pair test, got %d", len(res.Tests))
	}
	pt := res.Tests[0]
	if pt.Test != "ztest" {
		t.Errorf("expected ztest, got %s", pt.Test)
	}
	if math.Abs(pt.Stat-1.466) > 0.01 {
		t.Errorf("z statistic = %.4f, expected about 1.466", pt.Stat)
	}
	if pt.PValue < 0.14 || pt.PValue > 0.15 {
		t.Errorf("p-value = %.4f, expected about 0.143", pt.PValue)
	}
	if pt.Greater {
		t.Error("difference should not be significant at alpha 0.05")
	}
	if len(res.Rows[0].Cells[0].Letters) != 0 || len(res.Rows[0].Cells[1].Letters) != 0 {
		t.Error("no letters should be assigned on a non-significant pair")
	}
}

func TestTwoProportionZ_AsymmetricLetters(t *testing.T) {
	// 68% vs 50% at these bases is clearly significant. Only the
	// greater column is marked; the lower column gains nothing.
	res := percentResult(
		[]tabs.BaseStat{uniformBase(250), uniformBase(300)},
		[]float64{170, 150},
	)

	Annotate(res, run.DefaultConfig())

	cells := res.Rows[0].Cells
	if got := cells[0].Letters; len(got) != 1 || got[0] != "B" {
		t.Errorf("greater column letters = %v, expected [B]", got)
	}
	if len(cells[1].Letters) != 0 {
		t.Errorf("lower column letters = %v, expected none", cells[1].Letters)
	}
	if !res.Tests[0].Greater {
		t.Error("pair should be flagged significant")
	}
	if res.Tests[0].ColI != 0 || res.Tests[0].ColJ != 1 {
		t.Errorf("greater side should be column 0, got ColI=%d ColJ=%d",
			res.Tests[0].ColI, res.Tests[0].ColJ)
	}
}

func TestTwoProportionZ_ReorientsToGreaterSide(t *testing.T) {
	// Same pair with the columns swapped: ColI must still point at the
	// greater side and the statistic stays positive.
	res := percentResult(
		[]tabs.BaseStat{uniformBase(300), uniformBase(250)},
		[]float64{150, 170},
	)

	Annotate(res, run.DefaultConfig())

	pt := res.Tests[0]
	if pt.ColI != 1 || pt.ColJ != 0 {
		t.Errorf("expected reoriented pair (1 > 0), got ColI=%d ColJ=%d", pt.ColI, pt.ColJ)
	}
	if pt.Stat <= 0 {
		t.Errorf("reoriented statistic should be positive, got %.4f", pt.Stat)
	}
	if got := res.Rows[0].Cells[1].Letters; len(got) != 1 || got[0] != "A" {
		t.Errorf("greater column letters = %v, expected [A]", got)
	}
}

func TestWelchT_WorkedExample(t *testing.T) {
	// 7.8 (sd 1.5, n 200) vs 7.2 (sd 1.8, n 180): t about 3.51 with
	// Welch-Satterthwaite df near 350, significant at any usual alpha.
	res := meanResult(
		[]tabs.BaseStat{uniformBase(200), uniformBase(180)},
		[]float64{7.8, 7.2},
		[]float64{1.5, 1.8},
	)

	Annotate(res, run.DefaultConfig())

	if len(res.Tests) != 1 {
		t.Fatalf("expected 1 pair test, got %d", len(res.Tests))
	}
	pt := res.Tests[0]
	if pt.Test != "welch" {
		t.Errorf("expected welch, got %s", pt.Test)
	}
	if math.Abs(pt.Stat-3.508) > 0.01 {
		t.Errorf("t statistic = %.4f, expected about 3.508", pt.Stat)
	}
	if pt.PValue > 0.001 {
		t.Errorf("p-value = %.6f, expected well below 0.001", pt.PValue)
	}
	if !pt.Greater {
		t.Error("pair should be flagged significant")
	}
	if got := res.Rows[0].Cells[0].Letters; len(got) != 1 || got[0] != "B" {
		t.Errorf("greater column letters = %v, expected [B]", got)
	}
}

func TestWelchSatterthwaiteDF(t *testing.T) {
	vi := 1.5 * 1.5 / 200.0
	vj := 1.8 * 1.8 / 180.0
	df := welchSatterthwaite(vi, vj, 200, 180)
	if math.Abs(df-349.8) > 1 {
		t.Errorf("df = %.2f, expected about 349.8", df)
	}
}

func TestAnnotate_MinBaseExclusion(t *testing.T) {
	// A column one respondent short of the minimum is excluded from
	// every comparison, even when its difference would be enormous.
	cfg := run.DefaultConfig()
	res := percentResult(
		[]tabs.BaseStat{uniformBase(250), uniformBase(cfg.MinBase - 1)},
		[]float64{170, 2},
	)

	Annotate(res, cfg)

	if len(res.Tests) != 0 {
		t.Fatalf("expected no tests with one eligible column, got %d", len(res.Tests))
	}
	cells := res.Rows[0].Cells
	if !cells[0].Tested {
		t.Error("eligible column should be marked tested")
	}
	if cells[1].Tested {
		t.Error("below-minimum column must not be marked tested")
	}

	// At exactly the minimum the column becomes testable again.
	res = percentResult(
		[]tabs.BaseStat{uniformBase(250), uniformBase(cfg.MinBase)},
		[]float64{170, 2},
	)
	Annotate(res, cfg)
	if len(res.Tests) != 1 {
		t.Fatalf("expected 1 test at the exact minimum base, got %d", len(res.Tests))
	}
}

func TestAnnotate_Bonferroni(t *testing.T) {
	// Three eligible columns give three pairwise comparisons, so the
	// corrected threshold is alpha/3. Pick proportions whose pairwise
	// p-value sits between 0.05/3 and 0.05: significant uncorrected,
	// not significant corrected.
	bases := []tabs.BaseStat{uniformBase(300), uniformBase(300), uniformBase(300)}
	nums := []float64{150, 124, 150}

	plain := percentResult(bases, nums)
	cfg := run.DefaultConfig()
	Annotate(plain, cfg)

	corrected := percentResult(bases, nums)
	cfg.Bonferroni = true
	Annotate(corrected, cfg)

	plainHits := significantCount(plain.Tests)
	correctedHits := significantCount(corrected.Tests)
	if plainHits == 0 {
		t.Fatal("expected at least one uncorrected significant pair")
	}
	if correctedHits >= plainHits {
		t.Errorf("Bonferroni should reduce significant pairs: uncorrected %d, corrected %d",
			plainHits, correctedHits)
	}

	// The correction must never create a significant pair.
	for _, pt := range corrected.Tests {
		if !pt.Greater {
			continue
		}
		found := false
		for _, base := range plain.Tests {
			if base.RowKey == pt.RowKey && base.ColI == pt.ColI && base.ColJ == pt.ColJ && base.Greater {
				found = true
			}
		}
		if !found {
			t.Errorf("corrected pair (%d, %d) significant but uncorrected pair is not", pt.ColI, pt.ColJ)
		}
	}
}

func significantCount(tests []tabs.PairTest) int {
	n := 0
	for _, pt := range tests {
		if pt.Greater {
			n++
		}
	}
	return n
}

func TestAnnotate_TestFamilyGate(t *testing.T) {
	bases := []tabs.BaseStat{uniformBase(200), uniformBase(180)}

	res := meanResult(bases, []float64{7.8, 7.2}, []float64{1.5, 1.8})
	cfg := run.DefaultConfig()
	cfg.TestFamily = run.TestZOnly
	Annotate(res, cfg)
	if len(res.Tests) != 0 {
		t.Errorf("z-only family must skip mean rows, got %d tests", len(res.Tests))
	}

	res = percentResult(bases, []float64{136, 90})
	cfg.TestFamily = run.TestTOnly
	Annotate(res, cfg)
	if len(res.Tests) != 0 {
		t.Errorf("t-only family must skip percent rows, got %d tests", len(res.Tests))
	}
}

func TestAnnotate_EmptyColumnUntested(t *testing.T) {
	res := percentResult(
		[]tabs.BaseStat{uniformBase(250), {Empty: true}},
		[]float64{170, 0},
	)

	Annotate(res, run.DefaultConfig())

	if res.Rows[0].Cells[1].Tested {
		t.Error("empty-base column must not be marked tested")
	}
	if len(res.Tests) != 0 {
		t.Errorf("expected no tests against an empty column, got %d", len(res.Tests))
	}
}

func TestOverallChiSquare(t *testing.T) {
	// Row/column construction: Total plus two real columns, two percent
	// rows with very different splits. The Total column must not enter
	// the table.
	res := &tabs.QuestionResult{
		Type: survey.TypeSingle,
		Columns: []banner.Header{
			{ID: banner.TotalID, Letter: "A"},
			{ID: "male", Letter: "B"},
			{ID: "female", Letter: "C"},
		},
		Bases: []tabs.BaseStat{uniformBase(400), uniformBase(200), uniformBase(200)},
		Rows: []tabs.Row{
			{Key: "opt:1", Kind: tabs.RowPercent, Cells: []tabs.Cell{
				{Count: 220, Weighted: 220}, {Count: 140, Weighted: 140}, {Count: 80, Weighted: 80},
			}},
			{Key: "opt:2", Kind: tabs.RowPercent, Cells: []tabs.Cell{
				{Count: 180, Weighted: 180}, {Count: 60, Weighted: 60}, {Count: 120, Weighted: 120},
			}},
		},
	}

	cfg := run.DefaultConfig()
	cfg.OverallChiSquare = true
	Annotate(res, cfg)

	if res.Overall == nil {
		t.Fatal("expected an overall chi-square result")
	}
	// 2x2 table 140/80 over 60/120: margins 220/180 and 200/200,
	// chi-square = 2*900/110 + 2*900/90 = 36.36.
	if math.Abs(res.Overall.Stat-36.36) > 0.05 {
		t.Errorf("chi-square stat = %.2f, expected about 36.36", res.Overall.Stat)
	}
	if res.Overall.DF != 1 {
		t.Errorf("df = %d, expected 1", res.Overall.DF)
	}
	if !res.Overall.Significant {
		t.Error("a 70/40 split against 40/60 should be significant")
	}
}

func TestOverallChiSquare_SingleSelectOnly(t *testing.T) {
	res := percentResult(
		[]tabs.BaseStat{uniformBase(250), uniformBase(300)},
		[]float64{170, 150},
	)
	res.Type = survey.TypeMulti

	cfg := run.DefaultConfig()
	cfg.OverallChiSquare = true
	Annotate(res, cfg)

	if res.Overall != nil {
		t.Error("overall chi-square must not run on multi-select tables")
	}
}

func TestAnnotate_LettersSorted(t *testing.T) {
	// One column dominating three others collects their letters in
	// alphabetical order regardless of comparison order.
	bases := []tabs.BaseStat{
		uniformBase(300), uniformBase(300), uniformBase(300), uniformBase(300),
	}
	res := percentResult(bases, []float64{240, 120, 121, 122})

	Annotate(res, run.DefaultConfig())

	got := res.Rows[0].Cells[0].Letters
	if len(got) != 3 {
		t.Fatalf("dominating column letters = %v, expected three", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Errorf("letters not sorted: %v", got)
		}
	}
}
