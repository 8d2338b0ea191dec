package engine

import (
	"fmt"
	"math"

	"goxtab/domain/core"
	"goxtab/domain/survey"
	"goxtab/domain/tabs"
)

// Dep is one already-processed dependency handed to a composite
type Dep struct {
	Question survey.Question
	Result   *tabs.QuestionResult
}

// CompositeProcessor computes a configured linear combination (mean or
// sum, optionally rescaled to 0-100) of other questions' weighted mean
// rows. It runs only after its dependencies, which the engine's
// scheduler guarantees. Its per-column base is the most conservative
// dependency base, and its spread propagates from the dependency
// standard errors assuming independent terms.
type CompositeProcessor struct{}

func (p *CompositeProcessor) Type() survey.QuestionType { return survey.TypeComposite }

func (p *CompositeProcessor) Process(qc *QuestionContext) (*tabs.QuestionResult, error) {
	q := qc.Question
	if q.Composite == nil || len(q.Composite.Terms) == 0 {
		return nil, fmt.Errorf("%w: question %s has no composite terms", core.ErrCompositeDependent, q.Code)
	}

	deps := make([]Dep, 0, len(q.Composite.Terms))
	for _, term := range q.Composite.Terms {
		dep, ok := qc.CompositeDeps[term.Source]
		if !ok || dep.Result == nil {
			return nil, fmt.Errorf("%w: %s needs %s", core.ErrCompositeDependent, q.Code, term.Source)
		}
		if dep.Result.MeanRow() == nil {
			return nil, fmt.Errorf("%w: %s emits no mean row for %s", core.ErrCompositeDependent, term.Source, q.Code)
		}
		deps = append(deps, dep)
	}

	res := newResult(qc)
	res.Bases = compositeBases(deps, len(qc.Columns))

	row := tabs.Row{Key: "index", Label: q.Text, Kind: tabs.RowMean}
	for ci := range qc.Columns {
		cell, err := p.combine(q, deps, ci, qc.Config.Precision)
		if err != nil {
			return nil, err
		}
		if res.Bases[ci].Empty {
			cell = tabs.Cell{}
		}
		row.Cells = append(row.Cells, cell)
	}
	res.Rows = append(res.Rows, row)
	return res, nil
}

// combine evaluates the linear combination for one column
func (p *CompositeProcessor) combine(q survey.Question, deps []Dep, ci int, precision int) (tabs.Cell, error) {
	spec := q.Composite
	var sumA, sumAV, sumVar float64
	count := math.MaxInt32

	for ti, term := range spec.Terms {
		dep := deps[ti]
		cell := dep.Result.MeanRow().Cells[ci]
		v := cell.Weighted // unrounded mean
		sd := cell.SD

		if spec.Rescale {
			min, max, ok := depBounds(dep.Question)
			if !ok || max == min {
				return tabs.Cell{}, fmt.Errorf("%w: %s has no usable scale bounds for rescaling", core.ErrCompositeDependent, dep.Question.Code)
			}
			factor := 100 / (max - min)
			v = (v - min) * factor
			sd = sd * factor
		}

		a := term.Weight
		if a == 0 {
			a = 1
		}
		sumA += a
		sumAV += a * v
		sumVar += a * a * sd * sd
		if cell.Count < count {
			count = cell.Count
		}
	}

	var value, sd float64
	switch spec.Aggregate {
	case "sum":
		value = sumAV
		sd = math.Sqrt(sumVar)
	default: // "mean"
		if sumA == 0 {
			return tabs.Cell{}, fmt.Errorf("%w: composite %s has zero total weight", core.ErrCompositeDependent, q.Code)
		}
		value = sumAV / sumA
		sd = math.Sqrt(sumVar) / sumA
	}

	return tabs.Cell{
		Count:    count,
		Weighted: value,
		Value:    roundTo(value, precision),
		SD:       sd,
	}, nil
}

// compositeBases takes, per column, the smallest dependency base: the
// index is only as solid as its thinnest input.
func compositeBases(deps []Dep, columns int) []tabs.BaseStat {
	bases := make([]tabs.BaseStat, columns)
	for ci := 0; ci < columns; ci++ {
		base := deps[0].Result.Bases[ci]
		for _, dep := range deps[1:] {
			b := dep.Result.Bases[ci]
			if b.Empty {
				base = b
				break
			}
			if b.Unweighted < base.Unweighted {
				base = b
			}
		}
		bases[ci] = base
	}
	return bases
}

// depBounds resolves the natural bounds of a dependency's mean row
func depBounds(q survey.Question) (min, max float64, ok bool) {
	switch q.Type {
	case survey.TypeNPS:
		return -100, 100, true
	case survey.TypeRank:
		if len(q.Options) > 1 {
			return 1, float64(len(q.Options)), true
		}
	default:
		if q.Scale != nil {
			return q.Scale.Min, q.Scale.Max, true
		}
	}
	return 0, 0, false
}
