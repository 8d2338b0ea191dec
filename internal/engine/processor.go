package engine

import (
	"fmt"
	"math"

	"goxtab/domain/core"
	"goxtab/domain/survey"
	"goxtab/domain/tabs"
)

// Processor is the shared contract every question type implements:
// take a prepared context, emit a result table without significance
// annotations. The significance engine enriches the table afterwards.
type Processor interface {
	Type() survey.QuestionType
	Process(qc *QuestionContext) (*tabs.QuestionResult, error)
}

// Dispatcher routes a prepared context to the processor declared by the
// question's type tag. The tag set is closed: adding a question type
// means adding a Processor implementation and registering it here.
type Dispatcher struct {
	processors map[survey.QuestionType]Processor
}

// NewDispatcher creates a dispatcher with all built-in processors
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{processors: make(map[survey.QuestionType]Processor)}
	for _, p := range []Processor{
		&SingleProcessor{},
		&MultiProcessor{},
		&NumericProcessor{},
		&NPSProcessor{},
		&RankProcessor{},
		&CompositeProcessor{},
	} {
		d.processors[p.Type()] = p
	}
	return d
}

// Dispatch runs the processor for the context's question type
func (d *Dispatcher) Dispatch(qc *QuestionContext) (*tabs.QuestionResult, error) {
	p, ok := d.processors[qc.Question.Type]
	if !ok {
		return nil, fmt.Errorf("%w: no processor for type %q", core.ErrAmbiguousOptions, qc.Question.Type)
	}
	return p.Process(qc)
}

// newResult scaffolds a result with headers and the base-size row
func newResult(qc *QuestionContext) *tabs.QuestionResult {
	res := &tabs.QuestionResult{
		Code: qc.Question.Code,
		Text: qc.Question.Text,
		Type: qc.Question.Type,
	}
	for _, col := range qc.Columns {
		res.Columns = append(res.Columns, col.Header)
		res.Bases = append(res.Bases, col.Base)
	}
	return res
}

// percentCell builds a proportion cell from a weighted numerator.
// Empty-base columns carry no value and are never silently 0%.
func percentCell(base tabs.BaseStat, count int, weighted float64, precision int) tabs.Cell {
	cell := tabs.Cell{Count: count, Weighted: weighted}
	if base.Empty || base.Weighted == 0 {
		return cell
	}
	cell.Value = roundTo(weighted/base.Weighted*100, precision)
	return cell
}

// meanCell builds a mean cell from per-respondent values and weights
func meanCell(base tabs.BaseStat, xs, ws []float64, precision int) tabs.Cell {
	cell := tabs.Cell{Count: len(xs)}
	if base.Empty || len(xs) == 0 {
		return cell
	}
	mean, sd, ok := weightedMeanSD(xs, ws)
	if !ok {
		return cell
	}
	cell.Weighted = mean // unrounded mean, used by the significance engine
	cell.Value = roundTo(mean, precision)
	cell.SD = sd
	return cell
}

// weightedMeanSD computes the weighted mean and weighted sample
// standard deviation. The variance uses an m/(m-1) correction over the
// positive-weight count m, so that uniform weights reproduce the
// classic sample statistics exactly.
func weightedMeanSD(xs, ws []float64) (mean, sd float64, ok bool) {
	var sumW, sumWX float64
	m := 0
	for i, x := range xs {
		w := ws[i]
		if w == 0 {
			continue
		}
		m++
		sumW += w
		sumWX += w * x
	}
	if sumW == 0 {
		return 0, 0, false
	}
	mean = sumWX / sumW

	if m < 2 {
		return mean, 0, true
	}
	var sumWD2 float64
	for i, x := range xs {
		w := ws[i]
		if w == 0 {
			continue
		}
		d := x - mean
		sumWD2 += w * d * d
	}
	variance := sumWD2 / sumW * float64(m) / float64(m-1)
	return mean, math.Sqrt(variance), true
}

// roundTo rounds half away from zero to the given number of decimals
func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// columnValues collects a column's numeric responses and their weights
func columnValues(qc *QuestionContext, ci int, column string) (xs, ws []float64) {
	q := qc.Question
	for _, ri := range qc.Columns[ci].Rows {
		v := qc.Data.Records[ri].Get(column)
		x, ok := NumericValue(q, v)
		if !ok {
			continue
		}
		xs = append(xs, x)
		ws = append(ws, qc.Weights[ri])
	}
	return xs, ws
}

// countMatches tallies a column's respondents matching a predicate
func countMatches(qc *QuestionContext, ci int, match func(survey.Record) bool) (count int, weighted float64) {
	for _, ri := range qc.Columns[ci].Rows {
		rec := qc.Data.Records[ri]
		if !match(rec) {
			continue
		}
		count++
		weighted += qc.Weights[ri]
	}
	return count, weighted
}
