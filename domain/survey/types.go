package survey

import (
	"fmt"

	"goxtab/domain/core"
)

// QuestionType is the closed set of processor variants. Dispatch is by
// this tag, never by runtime inspection of response values.
type QuestionType string

const (
	TypeSingle    QuestionType = "single"    // single-select categorical
	TypeMulti     QuestionType = "multi"     // multi-select
	TypeNumeric   QuestionType = "numeric"   // numeric / rating / Likert
	TypeNPS       QuestionType = "nps"       // bounded net-promoter scale
	TypeRank      QuestionType = "rank"      // rank-order grid
	TypeComposite QuestionType = "composite" // linear combination of other questions
)

// Known reports whether t is a declared question type
func (t QuestionType) Known() bool {
	switch t {
	case TypeSingle, TypeMulti, TypeNumeric, TypeNPS, TypeRank, TypeComposite:
		return true
	}
	return false
}

// Option represents one answer option of a question
type Option struct {
	Code  string  `json:"code"`
	Label string  `json:"label"`
	Value float64 `json:"value"`     // numeric value where applicable (scale points)
	HasValue bool `json:"has_value"` // whether Value carries meaning
}

// ScaleBounds are the declared bounds of a numeric/rating scale
type ScaleBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Filter is a declarative base filter: keep respondents whose response
// to Source is one of the accepted codes. Declarative (not a function)
// so question definitions stay serializable and runs stay deterministic.
type Filter struct {
	Source core.QuestionCode `json:"source"`
	Accept []string          `json:"accept"`
}

// Matches reports whether a record passes the filter
func (f Filter) Matches(rec Record) bool {
	v, ok := rec[string(f.Source)]
	if !ok || v.IsMissing() {
		return false
	}
	for _, code := range f.Accept {
		if v.Contains(code) {
			return true
		}
	}
	return false
}

// CompositeTerm is one weighted input of a composite index
type CompositeTerm struct {
	Source core.QuestionCode `json:"source"`
	Weight float64           `json:"weight"`
}

// CompositeSpec configures a composite index question
type CompositeSpec struct {
	Terms     []CompositeTerm `json:"terms"`
	Aggregate string          `json:"aggregate"` // "mean" or "sum"
	Rescale   bool            `json:"rescale"`   // rescale result to 0-100 via source scale bounds
}

// Question is an immutable question definition
type Question struct {
	Code       core.QuestionCode `json:"code"`
	Text       string            `json:"text"`
	Type       QuestionType      `json:"type"`
	Options    []Option          `json:"options,omitempty"`
	Scale      *ScaleBounds      `json:"scale,omitempty"`
	BaseFilter *Filter           `json:"base_filter,omitempty"`
	Composite  *CompositeSpec    `json:"composite,omitempty"`
}

// SubCode returns the record column that holds the response for one
// item of a grid-derived question (rank items, sub-coded multis).
func (q Question) SubCode(optionCode string) string {
	return fmt.Sprintf("%s_%s", q.Code, optionCode)
}

// ValueKind tags the shape of a raw response value
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindNumber
	KindCode
	KindCodeSet
)

// Value is a raw response value. Missing values are first-class: every
// aggregate in the engine skips them rather than treating them as zero.
type Value struct {
	Kind   ValueKind `json:"kind"`
	Number float64   `json:"number,omitempty"`
	Code   string    `json:"code,omitempty"`
	Codes  []string  `json:"codes,omitempty"`
}

// Missing returns the missing value
func Missing() Value { return Value{Kind: KindMissing} }

// Num wraps a numeric response
func Num(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Code wraps a categorical response code
func CodeValue(code string) Value { return Value{Kind: KindCode, Code: code} }

// CodeSet wraps a multi-select response
func CodeSet(codes ...string) Value { return Value{Kind: KindCodeSet, Codes: codes} }

// IsMissing reports whether the value is missing
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// Contains reports whether the value matches or includes a code
func (v Value) Contains(code string) bool {
	switch v.Kind {
	case KindCode:
		return v.Code == code
	case KindCodeSet:
		for _, c := range v.Codes {
			if c == code {
				return true
			}
		}
	case KindNumber:
		return fmt.Sprintf("%g", v.Number) == code
	}
	return false
}

// Record is one respondent row: question code (or sub-code) to raw value.
// Absent keys and explicit missing values are equivalent.
type Record map[string]Value

// Get returns the value for a column, or missing
func (r Record) Get(column string) Value {
	if v, ok := r[column]; ok {
		return v
	}
	return Missing()
}

// Has reports whether the record has a non-missing value for a column
func (r Record) Has(column string) bool {
	return !r.Get(column).IsMissing()
}

// Dataset is the full respondent collection for one run
type Dataset struct {
	Records []Record `json:"records"`
}

// Len returns the respondent count
func (d Dataset) Len() int { return len(d.Records) }

// HasColumn reports whether any record carries a non-missing value for column
func (d Dataset) HasColumn(column string) bool {
	for _, rec := range d.Records {
		if rec.Has(column) {
			return true
		}
	}
	return false
}

// Weights is one non-negative weight per respondent, index-aligned with
// Dataset.Records. A zero weight excludes the respondent from weighted
// aggregates but not from unweighted counts.
type Weights []float64

// Uniform returns a weight vector of 1.0 for n respondents
func Uniform(n int) Weights {
	w := make(Weights, n)
	for i := range w {
		w[i] = 1.0
	}
	return w
}

// Validate checks the weight-vector invariants against a respondent count
func (w Weights) Validate(n int) error {
	if len(w) != n {
		return fmt.Errorf("%w: length %d does not match %d respondents", core.ErrInvalidWeights, len(w), n)
	}
	anyPositive := false
	for i, wt := range w {
		if wt < 0 {
			return fmt.Errorf("%w: negative weight %g at index %d", core.ErrInvalidWeights, wt, i)
		}
		if wt > 0 {
			anyPositive = true
		}
	}
	if n > 0 && !anyPositive {
		return fmt.Errorf("%w: all weights are zero", core.ErrInvalidWeights)
	}
	return nil
}
