package engine

import (
	"fmt"

	"goxtab/domain/survey"
	"goxtab/domain/tabs"
)

// SingleProcessor tabulates single-select categorical questions: one
// percentage row per option, cell = weighted matches / weighted base.
type SingleProcessor struct{}

func (p *SingleProcessor) Type() survey.QuestionType { return survey.TypeSingle }

func (p *SingleProcessor) Process(qc *QuestionContext) (*tabs.QuestionResult, error) {
	q := qc.Question
	if len(q.Options) == 0 {
		return nil, fmt.Errorf("question %s has no options", q.Code)
	}

	res := newResult(qc)
	for _, opt := range q.Options {
		opt := opt
		row := tabs.Row{
			Key:   "opt:" + opt.Code,
			Label: opt.Label,
			Kind:  tabs.RowPercent,
		}
		for ci := range qc.Columns {
			count, weighted := countMatches(qc, ci, func(rec survey.Record) bool {
				return rec.Get(string(q.Code)).Contains(opt.Code)
			})
			row.Cells = append(row.Cells, percentCell(qc.Columns[ci].Base, count, weighted, qc.Config.Precision))
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}
