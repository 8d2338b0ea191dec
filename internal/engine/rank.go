package engine

import (
	"fmt"

	"goxtab/domain/survey"
	"goxtab/domain/tabs"
)

// RankProcessor tabulates rank-order grids: per ranked item, a weighted
// mean rank row and the weighted share ranked first, both testable.
// Rank positions arrive as numeric values in the item's sub-column
// (1 = most preferred).
type RankProcessor struct{}

func (p *RankProcessor) Type() survey.QuestionType { return survey.TypeRank }

func (p *RankProcessor) Process(qc *QuestionContext) (*tabs.QuestionResult, error) {
	q := qc.Question
	if len(q.Options) == 0 {
		return nil, fmt.Errorf("question %s has no ranked items", q.Code)
	}

	res := newResult(qc)

	for _, opt := range q.Options {
		opt := opt
		column := q.SubCode(opt.Code)

		first := tabs.Row{
			Key:   "first:" + opt.Code,
			Label: opt.Label + " - Ranked First",
			Kind:  tabs.RowPercent,
		}
		for ci := range qc.Columns {
			count, weighted := countMatches(qc, ci, func(rec survey.Record) bool {
				x, ok := NumericValue(q, rec.Get(column))
				return ok && x == 1
			})
			first.Cells = append(first.Cells, percentCell(qc.Columns[ci].Base, count, weighted, qc.Config.Precision))
		}
		res.Rows = append(res.Rows, first)

		mean := tabs.Row{
			Key:   "rank:" + opt.Code,
			Label: opt.Label + " - Mean Rank",
			Kind:  tabs.RowMean,
		}
		for ci := range qc.Columns {
			xs, ws := columnValues(qc, ci, column)
			mean.Cells = append(mean.Cells, meanCell(qc.Columns[ci].Base, xs, ws, qc.Config.Precision))
		}
		res.Rows = append(res.Rows, mean)
	}

	return res, nil
}
