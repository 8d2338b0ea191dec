package engine

import (
	"goxtab/domain/survey"
	"goxtab/domain/tabs"
)

// Fixed 0-10 net-promoter sub-ranges
const (
	npsDetractorMax = 6
	npsPromoterMin  = 9
)

// NPSProcessor tabulates bounded net-promoter questions: detractor,
// passive and promoter shares plus a score row = promoter% - detractor%
// in percentage points. The score is tested as a mean-like quantity by
// scoring each respondent -100/0/+100, whose weighted mean is exactly
// the NPS score and whose spread gives the standard error.
type NPSProcessor struct{}

func (p *NPSProcessor) Type() survey.QuestionType { return survey.TypeNPS }

func (p *NPSProcessor) Process(qc *QuestionContext) (*tabs.QuestionResult, error) {
	q := qc.Question
	res := newResult(qc)

	groups := []struct {
		key, label string
		match      func(x float64) bool
	}{
		{"detractor", "Detractors (0-6)", func(x float64) bool { return x <= npsDetractorMax }},
		{"passive", "Passives (7-8)", func(x float64) bool { return x > npsDetractorMax && x < npsPromoterMin }},
		{"promoter", "Promoters (9-10)", func(x float64) bool { return x >= npsPromoterMin }},
	}

	for _, g := range groups {
		g := g
		row := tabs.Row{Key: g.key, Label: g.label, Kind: tabs.RowPercent}
		for ci := range qc.Columns {
			count, weighted := countMatches(qc, ci, func(rec survey.Record) bool {
				x, ok := NumericValue(q, rec.Get(string(q.Code)))
				return ok && g.match(x)
			})
			row.Cells = append(row.Cells, percentCell(qc.Columns[ci].Base, count, weighted, qc.Config.Precision))
		}
		res.Rows = append(res.Rows, row)
	}

	score := tabs.Row{Key: "nps", Label: "NPS Score", Kind: tabs.RowMean}
	for ci := range qc.Columns {
		var xs, ws []float64
		for _, ri := range qc.Columns[ci].Rows {
			x, ok := NumericValue(q, qc.Data.Records[ri].Get(string(q.Code)))
			if !ok {
				continue
			}
			switch {
			case x <= npsDetractorMax:
				xs = append(xs, -100)
			case x >= npsPromoterMin:
				xs = append(xs, 100)
			default:
				xs = append(xs, 0)
			}
			ws = append(ws, qc.Weights[ri])
		}
		score.Cells = append(score.Cells, meanCell(qc.Columns[ci].Base, xs, ws, qc.Config.Precision))
	}
	res.Rows = append(res.Rows, score)

	return res, nil
}
