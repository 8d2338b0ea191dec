package engine

import (
	"goxtab/domain/banner"
	"goxtab/domain/survey"
	"goxtab/internal/errors"
)

// Banner holds the built column list plus each column's member row
// indices, computed once per run and reused across every question.
type Banner struct {
	Columns []banner.Column
	Members [][]int // per column, ascending respondent indices
}

// Headers returns the serializable column headers in display order
func (b *Banner) Headers() []banner.Header {
	headers := make([]banner.Header, len(b.Columns))
	for i, col := range b.Columns {
		headers[i] = col.Header()
	}
	return headers
}

// BuildBanner turns a banner specification into the ordered column list
// and resolves each column's membership against the dataset. The
// implicit Total column is always first. A banner that yields no
// columns, or a non-Total column matching zero respondents, is a hard
// failure: every downstream table would be meaningless.
func BuildBanner(spec banner.Spec, data survey.Dataset) (*Banner, error) {
	columns := make([]banner.Column, 0, len(spec.Entries)+1)

	columns = append(columns, banner.Column{
		ID:    banner.TotalID,
		Label: "Total",
		Match: func(survey.Record) bool { return true },
	})

	for _, entry := range spec.Entries {
		entry := entry
		columns = append(columns, banner.Column{
			ID:    entry.ID,
			Label: entry.Label,
			Match: func(rec survey.Record) bool {
				v := rec.Get(string(entry.Source))
				if v.IsMissing() {
					return false
				}
				for _, code := range entry.Accept {
					if v.Contains(code) {
						return true
					}
				}
				return false
			},
		})
	}

	if len(columns) == 0 {
		return nil, errors.BannerEmpty()
	}

	members := make([][]int, len(columns))
	for ci := range columns {
		columns[ci].Order = ci
		columns[ci].Letter = banner.Letter(ci)

		rows := make([]int, 0, data.Len())
		for ri, rec := range data.Records {
			if columns[ci].Match(rec) {
				rows = append(rows, ri)
			}
		}
		if len(rows) == 0 && !columns[ci].IsTotal() {
			return nil, errors.BannerDeadColumn(columns[ci].Label)
		}
		members[ci] = rows
	}

	return &Banner{Columns: columns, Members: members}, nil
}
