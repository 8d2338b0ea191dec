package tabs

import (
	"goxtab/domain/banner"
	"goxtab/domain/core"
	"goxtab/domain/run"
	"goxtab/domain/survey"
)

// RowKind tags the statistic a row carries, which decides the pairwise
// test family: proportions get the two-proportion z-test, means get
// Welch's t-test.
type RowKind string

const (
	RowPercent RowKind = "percent" // weighted proportion, shown as a percentage
	RowMean    RowKind = "mean"    // weighted mean (includes NPS score, mean rank, index)
)

// BaseStat is the per-(question, column) base triple plus design effect
type BaseStat struct {
	Unweighted int     `json:"unweighted"`
	Weighted   float64 `json:"weighted"`
	Effective  float64 `json:"effective"`
	Deff       float64 `json:"deff"`
	Empty      bool    `json:"empty"`
}

// Cell is one (row, column) value with its significance annotation
type Cell struct {
	Count    int      `json:"count"`           // unweighted numerator, percent rows only
	Weighted float64  `json:"weighted"`        // weighted numerator or weighted mean input sum
	Value    float64  `json:"value"`           // percentage (0-100) or mean
	SD       float64  `json:"sd,omitempty"`    // weighted standard deviation, mean rows only
	Tested   bool     `json:"tested"`          // false when excluded (empty or below-minimum base)
	Letters  []string `json:"letters,omitempty"` // letters of columns this cell is significantly above
}

// Row is one output row across all banner columns
type Row struct {
	Key   string  `json:"key"` // stable within the question ("opt:5", "mean", "top2box", ...)
	Label string  `json:"label"`
	Kind  RowKind `json:"kind"`
	Cells []Cell  `json:"cells"`
}

// PairTest records one directional significance decision for a row.
// The underlying test runs once per unordered pair; both directional
// claims are derived from its signed statistic.
type PairTest struct {
	RowKey  string  `json:"row_key"`
	ColI    int     `json:"col_i"` // display index of the greater candidate
	ColJ    int     `json:"col_j"`
	Test    string  `json:"test"` // "ztest" or "welch"
	Stat    float64 `json:"stat"`
	PValue  float64 `json:"p_value"`
	Greater bool    `json:"greater"` // column i significantly greater than column j
}

// ChiSquare is the optional overall test over the option x column table
type ChiSquare struct {
	Stat        float64 `json:"stat"`
	DF          int     `json:"df"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

// QuestionResult is one question's full output table. Created by a type
// processor, enriched once by the significance engine, then read-only.
type QuestionResult struct {
	Code    core.QuestionCode   `json:"code"`
	Text    string              `json:"text"`
	Type    survey.QuestionType `json:"type"`
	Columns []banner.Header     `json:"columns"`
	Bases   []BaseStat          `json:"bases"` // per column, display order
	Rows    []Row               `json:"rows"`
	Overall *ChiSquare          `json:"overall,omitempty"`
	Tests   []PairTest          `json:"tests,omitempty"`
}

// Row returns the row with the given key, or nil
func (r *QuestionResult) Row(key string) *Row {
	for i := range r.Rows {
		if r.Rows[i].Key == key {
			return &r.Rows[i]
		}
	}
	return nil
}

// MeanRow returns the question's summary mean row, if it emits one.
// Composites consume this row of their dependencies.
func (r *QuestionResult) MeanRow() *Row {
	for i := range r.Rows {
		if r.Rows[i].Kind == RowMean {
			return &r.Rows[i]
		}
	}
	return nil
}

// RunResult is the engine's full output: ordered question results plus
// the final guard summary, handed once to the report-writing collaborator.
type RunResult struct {
	RunID       core.RunID        `json:"run_id"`
	Fingerprint core.Hash         `json:"fingerprint"`
	Columns     []banner.Header   `json:"columns"`
	Results     []*QuestionResult `json:"results"`
	Summary     run.Summary       `json:"summary"`
}
