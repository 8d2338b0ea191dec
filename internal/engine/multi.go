package engine

import (
	"fmt"

	"goxtab/domain/survey"
	"goxtab/domain/tabs"
)

// MultiProcessor tabulates multi-select questions: one percentage row
// per option over respondent-level inclusion. A respondent selecting
// three options counts once in three rows, so rows need not sum to 100%.
type MultiProcessor struct{}

func (p *MultiProcessor) Type() survey.QuestionType { return survey.TypeMulti }

func (p *MultiProcessor) Process(qc *QuestionContext) (*tabs.QuestionResult, error) {
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
				// Sub-coded grids store one column per option; flat
				// multis store a code set under the question code.
				if sub := rec.Get(q.SubCode(opt.Code)); !sub.IsMissing() {
					return sub.Contains(opt.Code) || sub.Contains("1")
				}
				return rec.Get(string(q.Code)).Contains(opt.Code)
			})
			row.Cells = append(row.Cells, percentCell(qc.Columns[ci].Base, count, weighted, qc.Config.Precision))
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}
