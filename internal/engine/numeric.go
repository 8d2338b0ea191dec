package engine

import (
	"fmt"
	"sort"

	"goxtab/domain/survey"
	"goxtab/domain/tabs"
)

// NumericProcessor tabulates numeric/rating/Likert questions: one
// frequency row per scale point, a weighted-mean summary row, and
// optional top/bottom box rows unioning the extreme scale points.
type NumericProcessor struct{}

func (p *NumericProcessor) Type() survey.QuestionType { return survey.TypeNumeric }

func (p *NumericProcessor) Process(qc *QuestionContext) (*tabs.QuestionResult, error) {
	q := qc.Question
	points := scalePoints(q)
	if len(points) == 0 {
		return nil, fmt.Errorf("question %s has no scale points", q.Code)
	}

	res := newResult(qc)

	for _, pt := range points {
		pt := pt
		row := tabs.Row{
			Key:   fmt.Sprintf("pt:%g", pt.Value),
			Label: pt.Label,
			Kind:  tabs.RowPercent,
		}
		for ci := range qc.Columns {
			count, weighted := countMatches(qc, ci, func(rec survey.Record) bool {
				x, ok := NumericValue(q, rec.Get(string(q.Code)))
				return ok && x == pt.Value
			})
			row.Cells = append(row.Cells, percentCell(qc.Columns[ci].Base, count, weighted, qc.Config.Precision))
		}
		res.Rows = append(res.Rows, row)
	}

	if n := qc.Config.TopBox; n > 0 && n < len(points) {
		res.Rows = append(res.Rows, boxRow(qc, points[len(points)-n:], fmt.Sprintf("top%dbox", n), fmt.Sprintf("Top %d Box", n)))
	}
	if n := qc.Config.BottomBox; n > 0 && n < len(points) {
		res.Rows = append(res.Rows, boxRow(qc, points[:n], fmt.Sprintf("bottom%dbox", n), fmt.Sprintf("Bottom %d Box", n)))
	}

	mean := tabs.Row{Key: "mean", Label: "Mean", Kind: tabs.RowMean}
	for ci := range qc.Columns {
		xs, ws := columnValues(qc, ci, string(q.Code))
		mean.Cells = append(mean.Cells, meanCell(qc.Columns[ci].Base, xs, ws, qc.Config.Precision))
	}
	res.Rows = append(res.Rows, mean)

	return res, nil
}

// boxRow builds a derived row counting the union of the given scale points
func boxRow(qc *QuestionContext, points []scalePoint, key, label string) tabs.Row {
	q := qc.Question
	inBox := make(map[float64]bool, len(points))
	for _, pt := range points {
		inBox[pt.Value] = true
	}

	row := tabs.Row{Key: key, Label: label, Kind: tabs.RowPercent}
	for ci := range qc.Columns {
		count, weighted := countMatches(qc, ci, func(rec survey.Record) bool {
			x, ok := NumericValue(q, rec.Get(string(q.Code)))
			return ok && inBox[x]
		})
		row.Cells = append(row.Cells, percentCell(qc.Columns[ci].Base, count, weighted, qc.Config.Precision))
	}
	return row
}

type scalePoint struct {
	Value float64
	Label string
}

// scalePoints derives the ordered scale from the option list, falling
// back to integer points between the declared bounds.
func scalePoints(q survey.Question) []scalePoint {
	points := make([]scalePoint, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.HasValue {
			points = append(points, scalePoint{Value: opt.Value, Label: opt.Label})
		}
	}
	if len(points) == 0 && q.Scale != nil {
		for v := q.Scale.Min; v <= q.Scale.Max; v++ {
			points = append(points, scalePoint{Value: v, Label: fmt.Sprintf("%g", v)})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Value < points[j].Value })
	return points
}
