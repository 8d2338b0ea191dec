package engine

import (
	"fmt"

	"goxtab/domain/banner"
	"goxtab/domain/core"
	"goxtab/domain/run"
	"goxtab/domain/survey"
	"goxtab/domain/tabs"
	"goxtab/internal/guard"
)

// ColumnContext is one banner column's working set for one question:
// the respondent indices that are column members, pass the question's
// base filter, and answered the question, plus their base statistics.
type ColumnContext struct {
	Header banner.Header
	Rows   []int
	Base   tabs.BaseStat
}

// QuestionContext is the prepared input a type processor consumes
type QuestionContext struct {
	Question survey.Question
	Columns  []ColumnContext
	Data     *survey.Dataset
	Weights  survey.Weights
	Config   run.Config

	// CompositeDeps carries already-processed dependency results;
	// populated only for composite questions.
	CompositeDeps map[core.QuestionCode]Dep
}

// Orchestrate assembles the working context for one question: resolve
// the base filter, intersect with each banner column's member set, and
// compute per-column bases. Skip-class errors (missing source column,
// empty Total base) are returned for the caller to convert into a
// guard event; they never abort the run.
func (e *Engine) Orchestrate(q survey.Question, state *guard.State) (*QuestionContext, error) {
	if !q.Type.Known() {
		return nil, fmt.Errorf("%w: question %s has unknown type %q", core.ErrAmbiguousOptions, q.Code, q.Type)
	}
	if q.Type != survey.TypeComposite && !guard.QuestionColumnsPresent(q, e.data) {
		return nil, core.NewMissingColumnError(q.Code, string(q.Code))
	}

	qc := &QuestionContext{
		Question: q,
		Columns:  make([]ColumnContext, len(e.banner.Columns)),
		Data:     &e.data,
		Weights:  e.weights,
		Config:   e.cfg,
	}

	for ci, col := range e.banner.Columns {
		rows := make([]int, 0, len(e.banner.Members[ci]))
		for _, ri := range e.banner.Members[ci] {
			rec := e.data.Records[ri]
			if q.BaseFilter != nil && !q.BaseFilter.Matches(rec) {
				continue
			}
			if !answered(q, rec) {
				continue
			}
			rows = append(rows, ri)
		}

		base := ComputeBase(rows, e.weights)
		if base.Empty {
			state.Warn(q.Code, col.ID, "empty base after filtering")
		} else if base.Deff > e.cfg.DeffWarn {
			state.Warn(q.Code, col.ID, fmt.Sprintf("degraded design effect %.2f", base.Deff))
		}

		qc.Columns[ci] = ColumnContext{Header: col.Header(), Rows: rows, Base: base}
	}

	// A question nobody answered within the Total column has nothing to
	// tabulate; that is a per-question skip, not a run failure.
	if qc.Columns[0].Base.Empty {
		return nil, fmt.Errorf("%w: question %s", core.ErrEmptyBase, q.Code)
	}

	return qc, nil
}

// answered reports whether a record constitutes a non-missing response
// to the question. Composite questions have no raw responses.
func answered(q survey.Question, rec survey.Record) bool {
	switch q.Type {
	case survey.TypeRank:
		for _, opt := range q.Options {
			if rec.Has(q.SubCode(opt.Code)) {
				return true
			}
		}
		return false
	case survey.TypeMulti:
		if rec.Has(string(q.Code)) {
			return true
		}
		for _, opt := range q.Options {
			if rec.Has(q.SubCode(opt.Code)) {
				return true
			}
		}
		return false
	case survey.TypeComposite:
		return true
	default:
		return rec.Has(string(q.Code))
	}
}

// NumericValue resolves a raw response to the question's numeric scale:
// numbers pass through, categorical codes map via the matching option's
// declared value.
func NumericValue(q survey.Question, v survey.Value) (float64, bool) {
	switch v.Kind {
	case survey.KindNumber:
		return v.Number, true
	case survey.KindCode:
		for _, opt := range q.Options {
			if opt.Code == v.Code && opt.HasValue {
				return opt.Value, true
			}
		}
	}
	return 0, false
}
