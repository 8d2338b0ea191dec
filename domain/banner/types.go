package banner

import (
	"goxtab/domain/core"
	"goxtab/domain/survey"
)

// TotalID is the identifier of the implicit Total column
const TotalID core.ColumnID = "TOTAL"

// Entry is one declarative banner column definition: label the
// respondents whose response to Source is one of the accepted codes.
type Entry struct {
	ID     core.ColumnID     `json:"id"`
	Label  string            `json:"label"`
	Source core.QuestionCode `json:"source"`
	Accept []string          `json:"accept"`
}

// Spec is the ordered banner definition. The Total column is implicit
// and always prepended by the builder.
type Spec struct {
	Entries []Entry `json:"entries"`
}

// Column is a named respondent segment used as a table column.
// Columns may overlap and are not required to partition the sample;
// membership is an independent predicate per column, never a
// mutually-exclusive classification.
type Column struct {
	ID     core.ColumnID
	Label  string
	Order  int
	Letter string
	Match  func(survey.Record) bool
}

// IsTotal reports whether this is the implicit Total column
func (c Column) IsTotal() bool { return c.ID == TotalID }

// Header is the serializable face of a column (no predicate)
type Header struct {
	ID     core.ColumnID `json:"id"`
	Label  string        `json:"label"`
	Letter string        `json:"letter"`
}

// Header returns the column's serializable header
func (c Column) Header() Header {
	return Header{ID: c.ID, Label: c.Label, Letter: c.Letter}
}

// Letter returns the significance letter for a display position:
// A..Z, then AA, AB, ... for very wide banners.
func Letter(order int) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if order < len(alphabet) {
		return string(alphabet[order])
	}
	first := order/len(alphabet) - 1
	second := order % len(alphabet)
	return string(alphabet[first]) + string(alphabet[second])
}
